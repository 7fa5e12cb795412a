// package formatter renders a day of calendar events to various formats (table, CSV, Markdown, plain text)
package formatter

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/desertthunder/calday/internal/models"
	"github.com/desertthunder/calday/internal/shared"
)

const (
	// ClockLayout renders times as 9:00 AM.
	ClockLayout = "3:04 PM"
	// DayLayout renders a day heading.
	DayLayout = "Monday, January 2, 2006"
	// Placeholder stands in for a missing description or time.
	Placeholder = "-"
)

// Format is an export format for a [DayAgenda].
type Format string

const (
	FormatTable    Format = "table"
	FormatJSON     Format = "json"
	FormatCSV      Format = "csv"
	FormatMarkdown Format = "markdown"
	FormatText     Format = "text"
)

// Formats lists every supported [Format].
var Formats = []Format{FormatTable, FormatJSON, FormatCSV, FormatMarkdown, FormatText}

// ParseFormat resolves a format name; "md" and "txt" are accepted as aliases.
func ParseFormat(name string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "table":
		return FormatTable, nil
	case "json":
		return FormatJSON, nil
	case "csv":
		return FormatCSV, nil
	case "markdown", "md":
		return FormatMarkdown, nil
	case "text", "txt":
		return FormatText, nil
	default:
		return "", fmt.Errorf("%w: unknown format %q", shared.ErrInvalidFlag, name)
	}
}

// Extension returns the file extension used when writing f to disk.
func (f Format) Extension() string {
	switch f {
	case FormatJSON:
		return ".json"
	case FormatCSV:
		return ".csv"
	case FormatMarkdown:
		return ".md"
	default:
		return ".txt"
	}
}

// DayAgenda is the event list of one day.
type DayAgenda struct {
	Day    time.Time              `json:"day"`
	Events []models.CalendarEvent `json:"events"`
}

// FormatClock renders t as "3:04 PM", or [Placeholder] for the zero time.
func FormatClock(t time.Time) string {
	if t.IsZero() {
		return Placeholder
	}
	return t.Format(ClockLayout)
}

// StartTime renders the start column of e.
func StartTime(e models.CalendarEvent) string {
	if e.AllDay {
		return "All day"
	}
	return FormatClock(e.Start)
}

// EndTime renders the end column of e; all-day events have none.
func EndTime(e models.CalendarEvent) string {
	if e.AllDay {
		return Placeholder
	}
	return FormatClock(e.End)
}

// Description renders the description column of e.
func Description(e models.CalendarEvent) string {
	if !e.HasDescription() {
		return Placeholder
	}
	return e.Description
}

// Title renders the event column of e.
func Title(e models.CalendarEvent) string {
	if e.Title == "" {
		return "(No title)"
	}
	return e.Title
}

// Heading returns "Events for Friday, March 15, 2024".
func Heading(day time.Time) string {
	return "Events for " + day.Format(DayLayout)
}

// Columns are the headers shared by the table, Markdown, and web renderings.
var Columns = []string{"Event", "Start Time", "End Time", "Description"}

// Row returns the display cells of e in [Columns] order.
func Row(e models.CalendarEvent) []string {
	return []string{Title(e), StartTime(e), EndTime(e), Description(e)}
}

// ExportToCSV converts a day to CSV with columns: ID, Title, Start, End, Description, AllDay
//
// Times are RFC3339 so the output can be re-imported.
func ExportToCSV(agenda DayAgenda) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"ID", "Title", "Start", "End", "Description", "AllDay"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, e := range agenda.Events {
		record := []string{
			e.ID,
			e.Title,
			csvTime(e.Start),
			csvTime(e.End),
			e.Description,
			strconv.FormatBool(e.AllDay),
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

func csvTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.RFC3339)
}

// ExportToMarkdown converts a day to a Markdown table
func ExportToMarkdown(agenda DayAgenda) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("# %s\n\n", Heading(agenda.Day)))

	if len(agenda.Events) == 0 {
		buf.WriteString("No events found for this date\n")
		return buf.Bytes(), nil
	}

	buf.WriteString("| " + strings.Join(Columns, " | ") + " |\n")
	buf.WriteString("|" + strings.Repeat(" --- |", len(Columns)) + "\n")
	for _, e := range agenda.Events {
		cells := Row(e)
		for i, cell := range cells {
			cells[i] = markdownEscaper.Replace(cell)
		}
		buf.WriteString("| " + strings.Join(cells, " | ") + " |\n")
	}

	return buf.Bytes(), nil
}

var markdownEscaper = strings.NewReplacer("|", `\|`, "\r\n", "<br>", "\n", "<br>")

// ExportToText converts a day to plain text format
func ExportToText(agenda DayAgenda) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString(Heading(agenda.Day) + "\n")
	buf.WriteString(fmt.Sprintf("Events: %d\n\n", len(agenda.Events)))

	if len(agenda.Events) == 0 {
		buf.WriteString("No events found for this date\n")
		return buf.Bytes(), nil
	}

	for i, e := range agenda.Events {
		buf.WriteString(fmt.Sprintf("%d. %s - %s  %s\n", i+1, StartTime(e), EndTime(e), Title(e)))
		if e.HasDescription() {
			buf.WriteString(fmt.Sprintf("   %s\n", e.Description))
		}
	}

	return buf.Bytes(), nil
}

// ExportToTable renders a day as a bordered terminal table.
func ExportToTable(agenda DayAgenda) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(Heading(agenda.Day) + "\n")

	if len(agenda.Events) == 0 {
		buf.WriteString("No events found for this date\n")
		return buf.Bytes(), nil
	}

	rows := make([][]string, 0, len(agenda.Events))
	for _, e := range agenda.Events {
		rows = append(rows, Row(e))
	}

	header := lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cell := lipgloss.NewStyle().Padding(0, 1)
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers(Columns...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return header
			}
			return cell
		})

	buf.WriteString(t.String() + "\n")
	return buf.Bytes(), nil
}

// ExportToJSON converts a day to indented JSON.
func ExportToJSON(agenda DayAgenda) ([]byte, error) {
	if agenda.Events == nil {
		agenda.Events = []models.CalendarEvent{}
	}
	data, err := json.MarshalIndent(agenda, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal JSON: %w", err)
	}
	return append(data, '\n'), nil
}

// Export renders agenda in format.
func Export(agenda DayAgenda, format Format) ([]byte, error) {
	switch format {
	case FormatTable:
		return ExportToTable(agenda)
	case FormatJSON:
		return ExportToJSON(agenda)
	case FormatCSV:
		return ExportToCSV(agenda)
	case FormatMarkdown:
		return ExportToMarkdown(agenda)
	case FormatText:
		return ExportToText(agenda)
	default:
		return nil, fmt.Errorf("%w: unknown format %q", shared.ErrInvalidFlag, format)
	}
}

// Write renders agenda in format to w.
func Write(w io.Writer, agenda DayAgenda, format Format) error {
	data, err := Export(agenda, format)
	if err != nil {
		return err
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

// WriteExport renders agenda to a file. When path is a directory (or empty) the file is named events_{YYYY-MM-DD}{ext}.
func WriteExport(agenda DayAgenda, format Format, path string) (string, error) {
	name := "events_" + agenda.Day.Format(models.DayKeyLayout) + format.Extension()
	if path == "" {
		path = name
	} else if info, err := os.Stat(path); err == nil && info.IsDir() {
		path = filepath.Join(path, name)
	}

	data, err := Export(agenda, format)
	if err != nil {
		return "", err
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return "", fmt.Errorf("failed to create directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write export file: %w", err)
	}
	return path, nil
}
