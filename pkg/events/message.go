package events

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/travigo/lcplanner/pkg/fragments"
	"github.com/travigo/lcplanner/pkg/util"
	"golang.org/x/exp/slices"
)

// Message is one event received from a live update source
type Message struct {
	ID    string
	Event string
	Data  string
	Retry time.Duration
}

// PageUpdate is queued for every page whose content changed upstream
type PageUpdate struct {
	URI string `json:"uri"`
}

type updateDocument struct {
	ID    string `json:"@id"`
	Graph []struct {
		DepartureTime string `json:"departureTime"`
	} `json:"@graph"`
}

// PageURIs lists the pages affected by a live update message.
// The message is either a page document, whose @id is the page, or a list of updated connections
// which map onto the pages holding their departure times.
func PageURIs(message Message, baseURL string, granularity time.Duration) ([]string, error) {
	var document updateDocument
	if err := json.Unmarshal([]byte(message.Data), &document); err != nil {
		return nil, err
	}

	var uris []string
	if strings.Contains(document.ID, "departureTime=") {
		uris = append(uris, document.ID)
	}

	for _, connection := range document.Graph {
		departureTime, err := time.Parse(time.RFC3339, connection.DepartureTime)
		if err != nil {
			continue
		}
		uris = append(uris, fragments.PageURI(baseURL, departureTime, granularity))
	}

	pageURIs := util.RemoveDuplicateStrings(uris, nil)
	slices.Sort(pageURIs)

	return pageURIs, nil
}
