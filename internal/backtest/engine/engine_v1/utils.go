package engine

import (
	"fmt"
	"path/filepath"
	"slices"
	"time"

	"github.com/moznion/go-optional"
)

// getResultFolder returns the directory a run writes into. Runs bounded by a time range
// get their own sub folder named after it.
func getResultFolder(resultsFolder string, startTime optional.Option[time.Time], endTime optional.Option[time.Time]) string {
	if startTime.IsNone() && endTime.IsNone() {
		return resultsFolder
	}

	startTimeStr := "all"
	endTimeStr := "all"

	if startTime.IsSome() {
		startTimeStr = startTime.Unwrap().Format("20060102")
	}

	if endTime.IsSome() {
		endTimeStr = endTime.Unwrap().Format("20060102")
	}

	return filepath.Join(resultsFolder, fmt.Sprintf("%s_%s", startTimeStr, endTimeStr))
}

// masterCalendar is the sorted union of the bar dates of every feed.
func masterCalendar(feedDates ...[]time.Time) []time.Time {
	seen := make(map[time.Time]struct{})

	var calendar []time.Time

	for _, dates := range feedDates {
		for _, date := range dates {
			if _, ok := seen[date]; ok {
				continue
			}

			seen[date] = struct{}{}
			calendar = append(calendar, date)
		}
	}

	slices.SortFunc(calendar, func(a, b time.Time) int { return a.Compare(b) })

	return calendar
}
