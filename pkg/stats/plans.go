package stats

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/travigo/lcplanner/pkg/elastic_client"
	"github.com/travigo/lcplanner/pkg/planner"
)

type planRequestDocument struct {
	Timestamp time.Time

	Origin        string
	Destination   string
	DepartureTime time.Time
	MaxTransfers  int

	Pages     int
	Fragments int
	Routes    int

	Successful bool
	Error      string
	ErrorType  string

	DurationMilliseconds int64
}

// PlanRequestIndexer keeps request counters and sends every finished plan to Elasticsearch when it is configured
type PlanRequestIndexer struct {
	Records *RecordsStats

	now func() time.Time
}

func NewPlanRequestIndexer(records *RecordsStats) *PlanRequestIndexer {
	return &PlanRequestIndexer{
		Records: records,
		now:     time.Now,
	}
}

func (i *PlanRequestIndexer) indexName() string {
	yearNumber, weekNumber := i.now().ISOWeek()
	return fmt.Sprintf("lc-plan-requests-%d-%d", yearNumber, weekNumber)
}

func (i *PlanRequestIndexer) RecordPlan(record *planner.PlanRecord) {
	if i.Records != nil {
		i.Records.recordPlan(record)
	}

	document := planRequestDocument{
		Timestamp:            i.now(),
		Origin:               record.Origin,
		Destination:          record.Destination,
		DepartureTime:        record.DepartureTime,
		MaxTransfers:         record.MaxTransfers,
		Pages:                record.Pages,
		Fragments:            record.Fragments,
		Routes:               record.Routes,
		Successful:           record.Error == nil,
		DurationMilliseconds: record.Duration.Milliseconds(),
	}
	if record.Error != nil {
		document.Error = record.Error.Error()
		document.ErrorType = fmt.Sprintf("%T", record.Error)
	}

	documentJSON, err := json.Marshal(document)
	if err != nil {
		log.Error().Err(err).Msg("Failed to marshal plan request document")
		return
	}

	elastic_client.IndexRequest(i.indexName(), bytes.NewReader(documentJSON))
}
