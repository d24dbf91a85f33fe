package stations

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/travigo/lcplanner/pkg/ctdf"
)

func isValidUrl(toTest string) bool {
	if _, err := url.ParseRequestURI(toTest); err != nil {
		return false
	}

	u, err := url.Parse(toTest)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return false
	}

	return true
}

// OpenSource opens a CSV location which is either a local file or an http(s) URL
func OpenSource(ctx context.Context, source string) (io.ReadCloser, error) {
	if !isValidUrl(source) {
		return os.Open(source)
	}

	request, err := http.NewRequestWithContext(ctx, http.MethodGet, source, nil)
	if err != nil {
		return nil, err
	}

	response, err := http.DefaultClient.Do(request)
	if err != nil {
		return nil, &ctdf.NetworkError{URI: source, Err: err}
	}

	if response.StatusCode != http.StatusOK {
		response.Body.Close()
		return nil, &ctdf.NetworkError{URI: source, StatusCode: response.StatusCode, Err: fmt.Errorf("%s", response.Status)}
	}

	log.Debug().Str("source", source).Msg("Downloading station data")

	return response.Body, nil
}

// LoadSources opens and parses the station CSVs, empty facilities or stops locations are skipped
func LoadSources(ctx context.Context, stationsSource string, facilitiesSource string, stopsSource string) ([]*ctdf.Station, error) {
	stationsFile, err := OpenSource(ctx, stationsSource)
	if err != nil {
		return nil, err
	}
	defer stationsFile.Close()

	var facilitiesFile, stopsFile io.Reader

	if facilitiesSource != "" {
		file, err := OpenSource(ctx, facilitiesSource)
		if err != nil {
			return nil, err
		}
		defer file.Close()
		facilitiesFile = file
	}

	if stopsSource != "" {
		file, err := OpenSource(ctx, stopsSource)
		if err != nil {
			return nil, err
		}
		defer file.Close()
		stopsFile = file
	}

	return LoadCSV(stationsFile, facilitiesFile, stopsFile)
}
