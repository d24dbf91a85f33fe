package liveboard

import (
	"fmt"
	"time"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
	"github.com/travigo/lcplanner/pkg/ctdf"
)

// filterEnvironment is what a filter expression can refer to, eg. `Delay > 60 && Direction == "Oostende"`
type filterEnvironment struct {
	Station   string
	Direction string
	TripID    string
	RouteID   string

	Time          time.Time
	ScheduledTime time.Time
	Delay         int // seconds
	OnTime        bool
}

type Filter struct {
	source  string
	program *vm.Program
}

func CompileFilter(source string) (*Filter, error) {
	program, err := expr.Compile(source, expr.Env(filterEnvironment{}), expr.AsBool())
	if err != nil {
		return nil, &ctdf.InvalidInputError{Field: "filter", Reason: err.Error()}
	}

	return &Filter{source: source, program: program}, nil
}

func (f *Filter) Match(entry *ctdf.LiveboardEntry, language ctdf.Language) (bool, error) {
	environment := filterEnvironment{
		Direction:     entry.Direction,
		TripID:        entry.TripID,
		RouteID:       entry.RouteID,
		Time:          entry.Time,
		ScheduledTime: entry.ScheduledTime,
		Delay:         int(entry.Delay.Seconds()),
		OnTime:        entry.IsOnTime(),
	}
	if entry.Station != nil {
		environment.Station = entry.Station.NameIn(language)
	}

	output, err := expr.Run(f.program, environment)
	if err != nil {
		return false, fmt.Errorf("evaluating filter %q: %w", f.source, err)
	}

	return output.(bool), nil
}
