package main

import (
	"fmt"
	"time"

	"github.com/olebedev/when"
	"github.com/olebedev/when/rules/common"
	"github.com/olebedev/when/rules/en"

	"github.com/akeller/worklog/internal/journal"
	"github.com/akeller/worklog/internal/workweek"
)

var dateParser = func() *when.Parser {
	p := when.New(nil)
	p.Add(en.All...)
	p.Add(common.All...)
	return p
}()

// parseDateArg accepts YYYY-MM-DD or a natural-language expression such as
// "today", "yesterday" or "last friday".
func parseDateArg(arg string) (time.Time, error) {
	if d, err := time.Parse(journal.DateLayout, arg); err == nil {
		return d, nil
	}

	result, err := dateParser.Parse(arg, time.Now())
	if err == nil && result != nil {
		return workweek.Truncate(result.Time), nil
	}
	return time.Time{}, fmt.Errorf("cannot parse date %q (use YYYY-MM-DD or e.g. \"yesterday\")", arg)
}

// dateOrToday parses args[0] when present, else today.
func dateOrToday(args []string) (time.Time, error) {
	if len(args) == 0 {
		return workweek.Truncate(time.Now()), nil
	}
	return parseDateArg(args[0])
}
