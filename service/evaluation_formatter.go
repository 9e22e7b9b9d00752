package service

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/ludo-technologies/cloneval/domain"
)

// EvaluationFormatterImpl implements domain.EvaluationFormatter
type EvaluationFormatterImpl struct {
	utils *FormatUtils
}

// NewEvaluationFormatter creates a new evaluation formatter
func NewEvaluationFormatter() *EvaluationFormatterImpl {
	return &EvaluationFormatterImpl{utils: NewFormatUtils()}
}

// Write formats an evaluation response
func (f *EvaluationFormatterImpl) Write(response *domain.EvaluationResponse, format domain.OutputFormat, writer io.Writer) error {
	switch format {
	case domain.OutputFormatText, "":
		_, err := io.WriteString(writer, f.formatText(response))
		return err
	case domain.OutputFormatJSON:
		return WriteJSON(writer, response)
	case domain.OutputFormatYAML:
		return WriteYAML(writer, response)
	case domain.OutputFormatCSV:
		return f.writeCSV(response, writer)
	default:
		return domain.NewUnsupportedFormatError(string(format))
	}
}

// WriteInspect formats an inspect response
func (f *EvaluationFormatterImpl) WriteInspect(response *domain.InspectResponse, format domain.OutputFormat, writer io.Writer) error {
	switch format {
	case domain.OutputFormatText, "":
		_, err := io.WriteString(writer, f.formatInspectText(response))
		return err
	case domain.OutputFormatJSON:
		return WriteJSON(writer, response)
	case domain.OutputFormatYAML:
		return WriteYAML(writer, response)
	case domain.OutputFormatCSV:
		return f.writeInspectCSV(response, writer)
	default:
		return domain.NewUnsupportedFormatError(string(format))
	}
}

func (f *EvaluationFormatterImpl) formatText(r *domain.EvaluationResponse) string {
	var b strings.Builder
	u := f.utils

	b.WriteString(u.FormatMainHeader("Clone Detector Evaluation"))
	b.WriteString(u.FormatLabel("Run ID", r.RunID))
	b.WriteString(u.FormatLabel("Dataset", r.DatasetRoot))
	b.WriteString(u.FormatLabel("Units", r.Total))
	b.WriteString(u.FormatLabel("Failed", r.Failed))
	b.WriteString(u.FormatLabel("Duration", u.FormatDuration(r.DurationMs)))
	b.WriteString("\n")

	columns := []string{fmt.Sprintf("%-10s", "cloneType"), fmt.Sprintf("%4s", "seed")}
	for _, k := range r.KValues {
		columns = append(columns, fmt.Sprintf("%7s", "p@"+strconv.Itoa(k)))
	}
	columns = append(columns, fmt.Sprintf("%7s", "MRR"), fmt.Sprintf("%7s", "MAP"), fmt.Sprintf("%7s", "recall"), "status")

	b.WriteString(u.FormatSectionHeader("Results"))
	b.WriteString(u.FormatTableHeader(columns...))
	for _, res := range r.Results {
		b.WriteString(fmt.Sprintf("%-10s  %4d", res.Unit.Category, res.Unit.Seed))
		if res.Failed() {
			for range r.KValues {
				b.WriteString(fmt.Sprintf("  %7s", "-"))
			}
			b.WriteString(fmt.Sprintf("  %7s  %7s  %7s  %s\n", "-", "-", "-", u.FormatStatus(true)))
			continue
		}
		b.WriteString(f.metricColumns(res.Metrics, r.KValues))
		b.WriteString("  " + u.FormatStatus(false) + "\n")
	}
	b.WriteString("\n")

	if len(r.Summary) > 0 {
		b.WriteString(u.FormatSectionHeader("Mean by clone type"))
		for _, s := range r.Summary {
			b.WriteString(fmt.Sprintf("%-10s  %4d", s.Category, s.Units))
			if s.Units == 0 {
				b.WriteString("  no successful units\n")
				continue
			}
			b.WriteString(f.metricColumns(s.Mean, r.KValues))
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	if r.Failed > 0 {
		b.WriteString(u.FormatSectionHeader("Failures"))
		for _, res := range r.Results {
			if res.Failed() {
				b.WriteString(u.FormatLabelWithIndent(SectionPadding, res.Unit.Name(), res.Error))
			}
		}
		b.WriteString("\n")
	}

	if len(r.Warnings) > 0 {
		b.WriteString(u.FormatSectionHeader("Warnings"))
		for _, w := range r.Warnings {
			b.WriteString(strings.Repeat(" ", SectionPadding) + w + "\n")
		}
		b.WriteString("\n")
	}

	return b.String()
}

func (f *EvaluationFormatterImpl) metricColumns(m domain.MetricSet, ks []int) string {
	var b strings.Builder
	for _, k := range ks {
		b.WriteString(fmt.Sprintf("  %7s", f.utils.FormatMetric(m.Precision(k))))
	}
	b.WriteString(fmt.Sprintf("  %7s  %7s  %7s",
		f.utils.FormatMetric(m.MRR),
		f.utils.FormatMetric(m.MAP),
		f.utils.FormatMetric(m.Recall)))
	return b.String()
}

// writeCSV writes the persisted row shape for every successful unit
func (f *EvaluationFormatterImpl) writeCSV(r *domain.EvaluationResponse, writer io.Writer) error {
	w := csv.NewWriter(writer)
	if err := w.Write(domain.ResultHeader(r.KValues)); err != nil {
		return err
	}
	for _, res := range r.Results {
		if res.Failed() {
			continue
		}
		if err := w.Write(res.Row(r.KValues)); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func (f *EvaluationFormatterImpl) formatInspectText(r *domain.InspectResponse) string {
	var b strings.Builder
	u := f.utils

	b.WriteString(u.FormatMainHeader("Clone-Pair Sources"))
	for _, s := range r.Sources {
		b.WriteString(u.FormatSectionHeader("Source"))
		b.WriteString(u.FormatLabel("Path", s.Path))
		b.WriteString(u.FormatLabel("Format", s.Format))
		b.WriteString(u.FormatLabel("Records", s.Records))
		b.WriteString(u.FormatLabel("Accepted", s.Accepted))
		b.WriteString(u.FormatLabel("Skipped", s.Skipped))
		b.WriteString(u.FormatLabel("Filtered", s.Filtered))
		b.WriteString(u.FormatLabel("Keys", s.Keys))
		b.WriteString(u.FormatLabel("Pairs", s.Pairs))
		b.WriteString(u.FormatLabel("Unique fragments", s.UniqueFragments))
		b.WriteString(u.FormatLabel("Unique (with duplicates)", s.MultiUniqueFragments))
		b.WriteString(u.FormatLabel("List entries", s.MultiEntries))
		b.WriteString(u.FormatLabel("Duration", u.FormatDuration(s.DurationMs)))
		if len(s.Diagnostics) > 0 {
			b.WriteString(u.FormatLabelWithIndent(SectionPadding, "Skipped records", ""))
			for _, d := range s.Diagnostics {
				b.WriteString(fmt.Sprintf("%sline %d: %s\n", strings.Repeat(" ", 2*SectionPadding), d.Line, d.Reason))
			}
		}
		b.WriteString("\n")
	}
	return b.String()
}

func (f *EvaluationFormatterImpl) writeInspectCSV(r *domain.InspectResponse, writer io.Writer) error {
	w := csv.NewWriter(writer)
	header := []string{"path", "format", "records", "accepted", "skipped", "filtered", "keys", "pairs", "unique_fragments"}
	if err := w.Write(header); err != nil {
		return err
	}
	for _, s := range r.Sources {
		row := []string{
			s.Path,
			string(s.Format),
			strconv.Itoa(s.Records),
			strconv.Itoa(s.Accepted),
			strconv.Itoa(s.Skipped),
			strconv.Itoa(s.Filtered),
			strconv.Itoa(s.Keys),
			strconv.Itoa(s.Pairs),
			strconv.Itoa(s.UniqueFragments),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}
