package cmd

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/viant/taskmail/progress"
)

type summary struct {
	Subtask      string
	Elapsed      time.Duration
	Records      int
	Expected     int
	Sum          int64
	ExpectedSum  int64
	Checkpoints  int
	TimerFirings int64
	State        string
	Progress     progress.Progress
	Err          error
}

func (s *summary) ok() bool {
	return s.Err == nil && s.Records == s.Expected && s.Sum == s.ExpectedSum
}

func printSummary(w io.Writer, s *summary) {
	header := color.New(color.FgCyan, color.Bold)
	label := color.New(color.FgWhite)
	rows := [][2]string{
		{"records processed", fmt.Sprintf("%d/%d", s.Records, s.Expected)},
		{"checksum", fmt.Sprintf("%d (expected %d)", s.Sum, s.ExpectedSum)},
		{"checkpoint barriers", fmt.Sprintf("%d", s.Checkpoints)},
		{"timer firings", fmt.Sprintf("%d", s.TimerFirings)},
		{"records reported", fmt.Sprintf("%d", s.Progress.ProcessedRecords)},
		{"mail submitted", fmt.Sprintf("%d", s.Progress.SubmittedMails)},
		{"mail executed", fmt.Sprintf("%d", s.Progress.ExecutedMails)},
		{"mail rejected", fmt.Sprintf("%d", s.Progress.RejectedMails)},
		{"mail discarded", fmt.Sprintf("%d", s.Progress.DiscardedMails)},
		{"loop state", s.State},
		{"elapsed", s.Elapsed.Round(time.Millisecond).String()},
	}
	width := 0
	for _, row := range rows {
		if len(row[0]) > width {
			width = len(row[0])
		}
	}

	header.Fprintf(w, "subtask %s\n", s.Subtask)
	fmt.Fprintln(w, strings.Repeat("-", width+24))
	for _, row := range rows {
		label.Fprintf(w, "%-*s  ", width, row[0])
		fmt.Fprintln(w, row[1])
	}
	switch {
	case s.Err != nil:
		color.New(color.FgRed, color.Bold).Fprintf(w, "FAILED: %v\n", s.Err)
	case s.ok():
		color.New(color.FgGreen, color.Bold).Fprintln(w, "OK")
	default:
		color.New(color.FgYellow, color.Bold).Fprintln(w, "INCOMPLETE")
	}
}
