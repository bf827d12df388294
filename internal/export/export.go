// Package export renders habits as CSV, JSON, YAML or XLSX files and reads
// JSON/YAML exports back for import.
package export

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
	"gopkg.in/yaml.v3"

	"github.com/dukerupert/habitloop/internal/model"
)

const (
	Version   = "1.0"
	Tool      = "habitloop"
	SheetName = "Habits"
)

var ErrUnsupportedFormat = errors.New("unsupported format")

type Format string

const (
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatXLSX Format = "xlsx"
)

func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatCSV, FormatJSON, FormatYAML, FormatXLSX:
		return f, nil
	case "yml":
		return FormatYAML, nil
	case "":
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("%w: %q (use csv, json, yaml, or xlsx)", ErrUnsupportedFormat, s)
	}
}

func (f Format) ContentType() string {
	switch f {
	case FormatCSV:
		return "text/csv; charset=utf-8"
	case FormatYAML:
		return "application/yaml"
	case FormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	default:
		return "application/json"
	}
}

// Filename returns habits_export_<date>.<ext>.
func Filename(f Format, date string) string {
	return fmt.Sprintf("habits_export_%s.%s", date, f)
}

// Data is the JSON/YAML export envelope.
type Data struct {
	Version    string        `json:"version" yaml:"version"`
	ExportedAt time.Time     `json:"exported_at" yaml:"exported_at"`
	Tool       string        `json:"tool" yaml:"tool"`
	Habits     []model.Habit `json:"habits" yaml:"habits"`
}

func NewData(habits []model.Habit, now time.Time) *Data {
	if habits == nil {
		habits = []model.Habit{}
	}
	return &Data{
		Version:    Version,
		ExportedAt: now.UTC(),
		Tool:       Tool,
		Habits:     habits,
	}
}

var columns = []string{
	"Name", "Description", "Category", "Frequency", "Days of Week",
	"Current Streak", "Created At", "Completed Dates",
}

// Rows returns the tabular view shared by CSV and XLSX, header first.
func Rows(habits []model.Habit) [][]string {
	rows := make([][]string, 0, len(habits)+1)
	rows = append(rows, columns)
	for _, h := range habits {
		days := make([]string, len(h.DaysOfWeek))
		for i, d := range h.DaysOfWeek {
			days[i] = string(d)
		}
		rows = append(rows, []string{
			h.Name,
			h.Description,
			string(h.Category),
			string(h.Frequency),
			strings.Join(days, " | "),
			strconv.Itoa(h.Streak),
			h.CreatedAt,
			strings.Join(h.CompletedDates, " | "),
		})
	}
	return rows
}

// Write encodes data in format f.
func Write(w io.Writer, f Format, data *Data) error {
	switch f {
	case FormatCSV:
		return writeCSV(w, data.Habits)
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(data); err != nil {
			return fmt.Errorf("encode json: %w", err)
		}
		return nil
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(data); err != nil {
			return fmt.Errorf("encode yaml: %w", err)
		}
		return enc.Close()
	case FormatXLSX:
		return writeXLSX(w, data.Habits)
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedFormat, f)
	}
}

func writeCSV(w io.Writer, habits []model.Habit) error {
	cw := csv.NewWriter(w)
	if err := cw.WriteAll(Rows(habits)); err != nil {
		return fmt.Errorf("write csv: %w", err)
	}
	return nil
}

func writeXLSX(w io.Writer, habits []model.Habit) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), SheetName); err != nil {
		return fmt.Errorf("name sheet: %w", err)
	}

	for i, row := range Rows(habits) {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		values := make([]any, len(row))
		for j, v := range row {
			values[j] = v
		}
		// Streak is written as a number.
		if i > 0 {
			values[5] = habits[i-1].Streak
		}
		if err := f.SetSheetRow(SheetName, cell, &values); err != nil {
			return fmt.Errorf("write row %d: %w", i+1, err)
		}
	}

	if err := f.SetColWidth(SheetName, "A", "B", 30); err != nil {
		return err
	}
	if err := f.SetColWidth(SheetName, "H", "H", 60); err != nil {
		return err
	}

	style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("create header style: %w", err)
	}
	if err := f.SetRowStyle(SheetName, 1, 1, style); err != nil {
		return err
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write xlsx: %w", err)
	}
	return nil
}

// Decode reads a JSON or YAML export envelope.
func Decode(r io.Reader, f Format) (*Data, error) {
	var data Data
	switch f {
	case FormatJSON:
		if err := json.NewDecoder(r).Decode(&data); err != nil {
			return nil, fmt.Errorf("decode json: %w", err)
		}
	case FormatYAML:
		if err := yaml.NewDecoder(r).Decode(&data); err != nil {
			return nil, fmt.Errorf("decode yaml: %w", err)
		}
	default:
		return nil, fmt.Errorf("%w: cannot import %q", ErrUnsupportedFormat, f)
	}
	if data.Habits == nil {
		data.Habits = []model.Habit{}
	}
	return &data, nil
}
