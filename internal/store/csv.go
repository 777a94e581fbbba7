package store

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"
	"time"

	"github.com/jimdaga/carspot/internal/models"
)

// CSV table layouts shared by the local file backend and the GitHub mirror.
// History rows keep latitude and longitude as independently empty fields; a
// sighting without a fix must not round-trip into coordinates of 0/0.
var (
	totalsHeader  = []string{"name", "count", "streak"}
	historyHeader = []string{"id", "timestamp", "spotter", "latitude", "longitude"}
)

const timestampLayout = time.RFC3339

// EncodeTotalsCSV renders the full totals table, header included.
func EncodeTotalsCSV(rows []models.Spotter) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write(totalsHeader); err != nil {
		return nil, err
	}
	for _, row := range rows {
		record := []string{row.Name, strconv.Itoa(row.Count), strconv.Itoa(row.Streak)}
		if err := w.Write(record); err != nil {
			return nil, err
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// DecodeTotalsCSV parses a totals table. Malformed rows are skipped rather
// than failing the load; a file that cannot be parsed at all returns an
// error so the caller can fall back to first-run defaults.
func DecodeTotalsCSV(data []byte) ([]models.Spotter, error) {
	records, err := readAll(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse totals csv: %w", err)
	}

	var rows []models.Spotter
	for i, record := range records {
		if i == 0 && isHeader(record, totalsHeader) {
			continue
		}
		if len(record) < 2 {
			continue
		}
		count, err := strconv.Atoi(record[1])
		if err != nil {
			continue
		}
		row := models.Spotter{Name: record[0], Count: count}
		if len(record) >= 3 {
			if streak, err := strconv.Atoi(record[2]); err == nil {
				row.Streak = streak
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// EncodeHistoryCSV renders the full history table, newest first, header
// included.
func EncodeHistoryCSV(rows []models.Sighting) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write(historyHeader); err != nil {
		return nil, err
	}
	for _, row := range rows {
		record := []string{
			row.ID,
			row.Timestamp.Format(timestampLayout),
			row.Spotter,
			formatCoord(row.Latitude),
			formatCoord(row.Longitude),
		}
		if err := w.Write(record); err != nil {
			return nil, err
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// DecodeHistoryCSV parses a history table, preserving row order (newest
// first). Malformed rows are skipped.
func DecodeHistoryCSV(data []byte) ([]models.Sighting, error) {
	records, err := readAll(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse history csv: %w", err)
	}

	var rows []models.Sighting
	for i, record := range records {
		if i == 0 && isHeader(record, historyHeader) {
			continue
		}
		if len(record) < 3 {
			continue
		}
		ts, err := time.Parse(timestampLayout, record[1])
		if err != nil {
			continue
		}
		row := models.Sighting{ID: record[0], Timestamp: ts, Spotter: record[2]}
		if len(record) >= 5 {
			row.Latitude = parseCoord(record[3])
			row.Longitude = parseCoord(record[4])
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func readAll(data []byte) ([][]string, error) {
	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1
	return r.ReadAll()
}

func isHeader(record, header []string) bool {
	return len(record) > 0 && record[0] == header[0]
}

func formatCoord(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

func parseCoord(s string) *float64 {
	if s == "" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &v
}
