package main

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/common-nighthawk/go-figure"
	"github.com/fatih/color"

	"github.com/Bahjat/phishguard/backend/internal/model"
	"github.com/Bahjat/phishguard/backend/internal/pipeline"
	"github.com/Bahjat/phishguard/backend/internal/platform/errs"
)

var (
	red    = color.New(color.FgRed, color.Bold)
	green  = color.New(color.FgGreen, color.Bold)
	yellow = color.New(color.FgYellow)
	cyan   = color.New(color.FgCyan)
	gray   = color.New(color.FgHiBlack)
)

func printBanner(w io.Writer) {
	banner := figure.NewFigure("PHISHSCAN", "doom", true)
	_, _ = red.Fprintln(w, banner.String())
	_, _ = cyan.Fprintln(w, strings.Repeat("=", 48))
	_, _ = gray.Fprintln(w, "    URL phishing analysis | lexical, content and network features")
	_, _ = cyan.Fprintln(w, strings.Repeat("=", 48))
}

func levelColor(level model.RiskLevel) *color.Color {
	switch level {
	case model.RiskHigh:
		return red
	case model.RiskMedium:
		return yellow
	default:
		return green
	}
}

func printOutcome(w io.Writer, o pipeline.Outcome) {
	if o.Err != nil {
		_, _ = red.Fprint(w, "[ERROR]")
		fmt.Fprintf(w, " %s: %s\n", o.URL, errorMessage(o.Err))
		return
	}

	r := o.Result
	if r.IsPhishing {
		_, _ = red.Fprint(w, "[PHISHING]")
	} else {
		_, _ = green.Fprint(w, "[LEGITIMATE]")
	}
	fmt.Fprintf(w, " %s  confidence %.2f  risk ", r.URL, r.Confidence)
	_, _ = levelColor(r.RiskLevel).Fprintln(w, r.RiskLevel)

	info := r.NetworkInfo
	line := "    final " + info.FinalURL
	if info.IPAddress != nil {
		line += "  ip " + *info.IPAddress
	}
	if loc := info.Location; loc != nil && loc.Country != "" {
		line += "  (" + strings.Join(nonEmpty(loc.City, loc.Country), ", ") + ")"
	}
	_, _ = gray.Fprintln(w, line)

	for i, hop := range info.RedirectChain {
		_, _ = gray.Fprintf(w, "    [%d] %d %s\n", i+1, hop.StatusCode, hop.URL)
	}
	for _, ind := range r.RiskIndicators {
		_, _ = yellow.Fprintf(w, "    - %s\n", ind)
	}
}

func printSummary(w io.Writer, outcomes []pipeline.Outcome) {
	var phishing, legitimate, failed int
	for _, o := range outcomes {
		switch {
		case o.Err != nil:
			failed++
		case o.Result.IsPhishing:
			phishing++
		default:
			legitimate++
		}
	}
	_, _ = cyan.Fprintf(w, "\nAnalyzed %d URLs: %d phishing, %d legitimate, %d failed\n",
		len(outcomes), phishing, legitimate, failed)
}

func toBatchItems(outcomes []pipeline.Outcome) []model.BatchItem {
	items := make([]model.BatchItem, len(outcomes))
	for i, o := range outcomes {
		items[i] = model.BatchItem{URL: o.URL, Result: o.Result}
		if o.Err != nil {
			items[i].Error = &model.ErrorResponse{
				Error:   errs.KindOf(o.Err).String(),
				Message: errorMessage(o.Err),
			}
		}
	}
	return items
}

func errorMessage(err error) string {
	var appErr *errs.AppError
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return err.Error()
}

func nonEmpty(parts ...string) []string {
	var out []string
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
