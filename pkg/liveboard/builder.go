package liveboard

import (
	"context"
	"iter"
	"sync"
	"time"

	"github.com/jinzhu/copier"
	"github.com/rs/zerolog/log"
	"github.com/sourcegraph/conc/pool"
	"github.com/travigo/lcplanner/pkg/ctdf"
	"github.com/travigo/lcplanner/pkg/fragments"
	"github.com/travigo/lcplanner/pkg/stations"
	"github.com/travigo/lcplanner/pkg/util"
	"golang.org/x/exp/slices"
)

const (
	DefaultWindow          = 30 * time.Minute
	DefaultMaxPages        = 100
	DefaultWorkers         = 8
	DefaultArrivalLookback = time.Hour
)

type Query struct {
	Station string
	Mode    ctdf.LiveboardMode

	From  time.Time
	Until time.Time

	// Optional expression entries have to match
	Filter   string
	Language ctdf.Language
}

type Direction int

const (
	DirectionEarlier Direction = iota
	DirectionLater
)

// Builder assembles departure and arrival boards from Linked Connections pages
type Builder struct {
	DefaultWindow time.Duration
	MaxPages      int
	Workers       int

	// ArrivalLookback is the longest a single connection may take, arrivals boards page back this far before From
	ArrivalLookback time.Duration

	paginator *fragments.Paginator
	stations  stations.Directory

	now func() time.Time
}

func NewBuilder(pages fragments.PageSource, stationDirectory stations.Directory) *Builder {
	return &Builder{
		DefaultWindow:   DefaultWindow,
		MaxPages:        DefaultMaxPages,
		Workers:         DefaultWorkers,
		ArrivalLookback: DefaultArrivalLookback,
		paginator:       fragments.NewPaginator(pages),
		stations:        stationDirectory,
		now:             time.Now,
	}
}

func (b *Builder) normalise(query Query) (Query, error) {
	if query.Station == "" {
		return query, &ctdf.InvalidInputError{Field: "station", Reason: "must not be empty"}
	}

	switch query.Mode {
	case "":
		query.Mode = ctdf.LiveboardModeDepartures
	case ctdf.LiveboardModeDepartures, ctdf.LiveboardModeArrivals:
	default:
		return query, &ctdf.InvalidInputError{Field: "mode", Reason: "must be DEPARTURES or ARRIVALS"}
	}

	if query.From.IsZero() {
		query.From = b.now()
	}
	if query.Until.IsZero() {
		query.Until = query.From.Add(b.DefaultWindow)
	}
	if query.From.After(query.Until) {
		return query, &ctdf.InvalidInputError{Field: "from", Reason: "must not be after until"}
	}

	return query, nil
}

// Get builds the board for the station between From and Until, entries ascending by their time at the station
func (b *Builder) Get(ctx context.Context, query Query) (*ctdf.Liveboard, error) {
	query, err := b.normalise(query)
	if err != nil {
		return nil, err
	}

	var filter *Filter
	if query.Filter != "" {
		filter, err = CompileFilter(query.Filter)
		if err != nil {
			return nil, err
		}
	}

	station, err := b.stations.Get(ctx, query.Station)
	if err != nil {
		return nil, err
	}

	board := &ctdf.Liveboard{
		Station: station,
		Mode:    query.Mode,
		From:    query.From,
		Until:   query.Until,
	}

	board.Entries, err = b.entries(ctx, board, query.From, query.Until)
	if err != nil {
		return nil, err
	}

	if filter != nil {
		var filterErr error
		util.InPlaceFilter(&board.Entries, func(entry *ctdf.LiveboardEntry) bool {
			matches, err := filter.Match(entry, query.Language)
			if err != nil && filterErr == nil {
				filterErr = err
			}
			return matches
		})
		if filterErr != nil {
			return nil, &ctdf.InvalidInputError{Field: "filter", Reason: filterErr.Error()}
		}
	}

	log.Debug().
		Str("station", station.ID).
		Str("mode", string(query.Mode)).
		Int("entries", len(board.Entries)).
		Msg("Liveboard built")

	return board, nil
}

// Entries streams the board entries in order. The sequence either yields every entry or ends with exactly one error.
func (b *Builder) Entries(ctx context.Context, query Query) iter.Seq2[*ctdf.LiveboardEntry, error] {
	return func(yield func(*ctdf.LiveboardEntry, error) bool) {
		board, err := b.Get(ctx, query)
		if err != nil {
			yield(nil, err)
			return
		}

		for _, entry := range board.Entries {
			if !yield(entry, nil) {
				return
			}
		}
	}
}

// Extend returns a copy of board also covering the window of the same length before or after it
func (b *Builder) Extend(ctx context.Context, board *ctdf.Liveboard, direction Direction) (*ctdf.Liveboard, error) {
	window := board.Until.Sub(board.From)
	if window <= 0 {
		window = b.DefaultWindow
	}

	from, until := board.Until, board.Until.Add(window)
	if direction == DirectionEarlier {
		from, until = board.From.Add(-window), board.From
	}

	additional, err := b.entries(ctx, board, from, until)
	if err != nil {
		return nil, err
	}

	extended := &ctdf.Liveboard{}
	if err := copier.CopyWithOption(extended, board, copier.Option{DeepCopy: true}); err != nil {
		return nil, err
	}

	known := map[string]bool{}
	for _, entry := range extended.Entries {
		known[entry.Fragment.ID] = true
	}
	for _, entry := range additional {
		if !known[entry.Fragment.ID] {
			extended.Entries = append(extended.Entries, entry)
		}
	}
	sortEntries(extended.Entries)

	extended.From = minTime(board.From, from)
	extended.Until = maxTime(board.Until, until)

	return extended, nil
}

type entryAccumulator struct {
	mutex   sync.Mutex
	entries []*ctdf.LiveboardEntry
}

func (a *entryAccumulator) add(entry *ctdf.LiveboardEntry) {
	a.mutex.Lock()
	defer a.mutex.Unlock()

	a.entries = append(a.entries, entry)
}

// entries walks back from until while pages still depart at or after from.
// Arrivals boards keep going for ArrivalLookback so connections departing before from but arriving after it are found.
func (b *Builder) entries(ctx context.Context, board *ctdf.Liveboard, from time.Time, until time.Time) ([]*ctdf.LiveboardEntry, error) {
	accumulator := &entryAccumulator{}
	workers := pool.New().WithContext(ctx).WithCancelOnError().WithMaxGoroutines(b.Workers)

	earliestDeparture := from
	if board.Mode == ctdf.LiveboardModeArrivals {
		earliestDeparture = from.Add(-b.ArrivalLookback)
	}

	continuePredicate := func(page *ctdf.Page) bool {
		return !page.EarliestDeparture().Before(earliestDeparture)
	}

	var collectErr error
	for page, err := range b.paginator.Collect(ctx, until, continuePredicate, fragments.WithMaxPages(b.MaxPages)) {
		if err != nil {
			collectErr = err
			break
		}

		workers.Go(func(ctx context.Context) error {
			for _, fragment := range page.Fragments {
				if err := ctx.Err(); err != nil {
					return err
				}

				if entry := b.entry(ctx, board, fragment, from, until); entry != nil {
					accumulator.add(entry)
				}
			}
			return nil
		})
	}

	if err := workers.Wait(); err != nil && collectErr == nil {
		collectErr = err
	}
	if collectErr != nil {
		return nil, collectErr
	}

	// Neighbouring pages can repeat a connection
	util.DeduplicateBy(&accumulator.entries, func(entry *ctdf.LiveboardEntry) string {
		return entry.Fragment.ID
	})

	sortEntries(accumulator.entries)

	return accumulator.entries, nil
}

func (b *Builder) entry(ctx context.Context, board *ctdf.Liveboard, fragment *ctdf.Fragment, from time.Time, until time.Time) *ctdf.LiveboardEntry {
	entry := &ctdf.LiveboardEntry{
		Fragment:  fragment,
		TripID:    fragment.TripID,
		RouteID:   fragment.RouteID,
		Direction: fragment.Direction,
	}

	var otherStop string
	switch board.Mode {
	case ctdf.LiveboardModeArrivals:
		if !atStation(board.Station, fragment.ArrivalStop) {
			return nil
		}
		otherStop = fragment.DepartureStop
		entry.Time = fragment.ArrivalTime
		entry.ScheduledTime = fragment.ScheduledArrivalTime()
		entry.Delay = fragment.ArrivalDelay
	default:
		if !atStation(board.Station, fragment.DepartureStop) {
			return nil
		}
		otherStop = fragment.ArrivalStop
		entry.Time = fragment.DepartureTime
		entry.ScheduledTime = fragment.ScheduledDepartureTime()
		entry.Delay = fragment.DepartureDelay
	}

	if entry.Time.Before(from) || entry.Time.After(until) {
		return nil
	}

	station, err := b.stations.Get(ctx, otherStop)
	if err != nil {
		log.Error().Err(err).Str("station", otherStop).Str("fragment", fragment.ID).Msg("Skipping liveboard entry")
		return nil
	}
	entry.Station = station

	return entry
}

// atStation matches the station itself and any of its platforms
func atStation(station *ctdf.Station, stop string) bool {
	if stop == station.ID {
		return true
	}
	_, isPlatform := station.Platforms[stop]
	return isPlatform
}

func sortEntries(entries []*ctdf.LiveboardEntry) {
	slices.SortStableFunc(entries, func(a, b *ctdf.LiveboardEntry) int {
		if c := a.Time.Compare(b.Time); c != 0 {
			return c
		}
		if a.Fragment.ID < b.Fragment.ID {
			return -1
		} else if a.Fragment.ID > b.Fragment.ID {
			return 1
		}
		return 0
	})
}

func minTime(a time.Time, b time.Time) time.Time {
	if a.Before(b) {
		return a
	}
	return b
}

func maxTime(a time.Time, b time.Time) time.Time {
	if a.After(b) {
		return a
	}
	return b
}
