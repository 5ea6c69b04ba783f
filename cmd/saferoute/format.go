package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/hervehildenbrand/saferoute/pkg/config"
	"github.com/hervehildenbrand/saferoute/pkg/models"
	"github.com/hervehildenbrand/saferoute/pkg/sessionlog"
)

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func printResult(w io.Writer, format string, r models.AnalysisResult) error {
	if format == config.OutputJSON {
		return writeJSON(w, r)
	}
	writeResultText(w, r)
	return nil
}

func printResults(w io.Writer, format string, results []models.AnalysisResult) error {
	if format == config.OutputJSON {
		return writeJSON(w, results)
	}
	for i, r := range results {
		if i > 0 {
			fmt.Fprintln(w)
		}
		fmt.Fprintf(w, "[%d/%d] ", i+1, len(results))
		writeResultText(w, r)
	}
	return nil
}

func writeResultText(w io.Writer, r models.AnalysisResult) {
	if !r.OK() {
		fmt.Fprintf(w, "ERROR: %s\n", r.Message)
		fmt.Fprintf(w, "  available: %s\n", strings.Join(r.AvailableLocations, ", "))
		return
	}

	ra := r.RiskAnalysis
	fmt.Fprintf(w, "%s -> %s\n", r.Route.Source, r.Route.Destination)
	fmt.Fprintf(w, "  combination: %s\n", ra.RiskCombination)
	fmt.Fprintf(w, "  priority:    %d (%s)\n", ra.PriorityLevel, ra.RiskDescription)
	fmt.Fprintf(w, "  risk score:  %.2f\n", ra.CombinedRiskScore)
	fmt.Fprintf(w, "  recommended: %s\n", yesNo(r.Recommendation.IsRecommended))
	if r.Recommendation.AlertMessage != nil {
		fmt.Fprintf(w, "  alert:       %s\n", *r.Recommendation.AlertMessage)
	}
	writeDetails(w, "source", r.SourceDetails)
	writeDetails(w, "destination", r.DestinationDetails)
}

func writeDetails(w io.Writer, label string, d *models.LocationDetails) {
	if d == nil {
		return
	}
	fmt.Fprintf(w, "  %s: %s [%s] crime %.1f, lighting %d, surveillance %d, incidents %d",
		label, d.Name, d.SafetyLevel, d.CrimeDensity, d.LightingQuality, d.SurveillanceCoverage, d.RecentIncidents)
	if d.PoliceStation != "" {
		fmt.Fprintf(w, ", %s", d.PoliceStation)
	}
	fmt.Fprintln(w)
}

func printAlternatives(w io.Writer, format, source, destination string, alts []models.Alternative) error {
	if format == config.OutputJSON {
		return writeJSON(w, map[string]interface{}{
			"source":       source,
			"destination":  destination,
			"alternatives": alts,
		})
	}

	if len(alts) == 0 {
		fmt.Fprintf(w, "No recommended alternatives from %s\n", source)
		return nil
	}

	fmt.Fprintf(w, "Safer alternatives to %s from %s:\n", destination, source)
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "  LOCATION\tLEVEL\tPRIORITY\tCRIME\tSURVEILLANCE\tDESCRIPTION")
	for _, a := range alts {
		fmt.Fprintf(tw, "  %s\t%s\t%d\t%.1f\t%d\t%s\n",
			a.Location, a.SafetyLevel, a.PriorityLevel, a.CrimeDensity, a.SurveillanceCoverage, a.RiskDescription)
	}
	return tw.Flush()
}

func printMatrix(w io.Writer, format string, m models.RiskMatrix) error {
	if format == config.OutputJSON {
		return writeJSON(w, map[string]interface{}{
			"locations": m.Locations,
			"matrix":    m.Map(),
		})
	}

	for i, name := range m.Locations {
		fmt.Fprintf(w, "%3d  %s\n", i+1, name)
	}
	fmt.Fprintln(w)

	tw := tabwriter.NewWriter(w, 0, 0, 1, ' ', tabwriter.AlignRight)
	fmt.Fprint(tw, "\t")
	for i := range m.Locations {
		fmt.Fprintf(tw, "%d\t", i+1)
	}
	fmt.Fprintln(tw)
	for i, row := range m.Cells {
		fmt.Fprintf(tw, "%d\t", i+1)
		for j, cell := range row {
			if i == j {
				fmt.Fprint(tw, "-\t")
				continue
			}
			fmt.Fprintf(tw, "%d\t", cell.PriorityLevel)
		}
		fmt.Fprintln(tw)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Fprintln(w, "\nrows: source, columns: destination, 0 = critical, 5 = very safe")
	return nil
}

func printSummary(w io.Writer, format string, s models.LocationSummary) error {
	if format == config.OutputJSON {
		return writeJSON(w, s)
	}

	fmt.Fprintf(w, "%d locations\n", s.Total)
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "  NAME\tLEVEL\tCRIME\tINCIDENTS")
	for _, l := range s.Locations {
		fmt.Fprintf(tw, "  %s\t%s\t%.1f\t%d\n", l.Name, l.SafetyLevel, l.CrimeDensity, l.IncidentsLastMonth)
	}
	return tw.Flush()
}

func printEntry(w io.Writer, format string, e sessionlog.Entry) error {
	if format == config.OutputJSON {
		return json.NewEncoder(w).Encode(e)
	}

	ts := e.RecordedAt.Format(time.RFC3339)
	if e.Status != models.StatusSuccess {
		_, err := fmt.Fprintf(w, "%s  %s -> %s  error: %s\n", ts, e.Source, e.Destination, e.Message)
		return err
	}
	_, err := fmt.Fprintf(w, "%s  %s -> %s  %s priority=%d score=%.2f recommended=%s\n",
		ts, e.Source, e.Destination, e.RiskCombination, e.PriorityLevel, e.CombinedRiskScore, yesNo(e.IsRecommended))
	return err
}
