// Package export renders a filtered site table to downloadable CSV, JSON,
// or Parquet files.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/freightlens/truck-traffic-dashboard/internal/domain"
	"github.com/xitongsys/parquet-go-source/writerfile"
	"github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/writer"
)

// Format identifies a supported export encoding.
type Format string

const (
	FormatCSV     Format = "csv"
	FormatJSON    Format = "json"
	FormatParquet Format = "parquet"
)

// ParseFormat validates a format query parameter. Empty selects CSV.
func ParseFormat(s string) (Format, error) {
	switch s {
	case "", "csv":
		return FormatCSV, nil
	case "json":
		return FormatJSON, nil
	case "parquet":
		return FormatParquet, nil
	default:
		return "", fmt.Errorf("unsupported export format %q", s)
	}
}

// Filename returns the download filename for the format.
func (f Format) Filename() string {
	return "traffic_data." + string(f)
}

// ContentType returns the MIME type served with the download.
func (f Format) ContentType() string {
	switch f {
	case FormatCSV:
		return "text/csv"
	case FormatJSON:
		return "application/json"
	default:
		return "application/octet-stream"
	}
}

// row is one export record. The parquet tags drive the parquet schema, the
// JSON tags the JSON export, and csvHeader mirrors the field order.
type row struct {
	SiteNumber    int64   `json:"site_number" parquet:"name=site_number, type=INT64"`
	RoadName      string  `json:"road_name" parquet:"name=road_name, type=BYTE_ARRAY, convertedtype=UTF8"`
	LocationDesc  string  `json:"location_desc" parquet:"name=location_desc, type=BYTE_ARRAY, convertedtype=UTF8"`
	RoadDir       string  `json:"road_dir" parquet:"name=road_dir, type=BYTE_ARRAY, convertedtype=UTF8"`
	Lat           float64 `json:"lat" parquet:"name=lat, type=DOUBLE"`
	Lon           float64 `json:"lon" parquet:"name=lon, type=DOUBLE"`
	Class3        float64 `json:"class_3" parquet:"name=class_3, type=DOUBLE"`
	Class4        float64 `json:"class_4" parquet:"name=class_4, type=DOUBLE"`
	Class5        float64 `json:"class_5" parquet:"name=class_5, type=DOUBLE"`
	Class6        float64 `json:"class_6" parquet:"name=class_6, type=DOUBLE"`
	Class7        float64 `json:"class_7" parquet:"name=class_7, type=DOUBLE"`
	Class8        float64 `json:"class_8" parquet:"name=class_8, type=DOUBLE"`
	Class9        float64 `json:"class_9" parquet:"name=class_9, type=DOUBLE"`
	Class10       float64 `json:"class_10" parquet:"name=class_10, type=DOUBLE"`
	TotalVehicles float64 `json:"total_vehicles" parquet:"name=total_vehicles, type=DOUBLE"`
	MediumTrucks  float64 `json:"medium_trucks" parquet:"name=medium_trucks, type=DOUBLE"`
	HeavyTrucks   float64 `json:"heavy_trucks" parquet:"name=heavy_trucks, type=DOUBLE"`
	HeavyPct      float64 `json:"heavy_pct" parquet:"name=heavy_pct, type=DOUBLE"`
	VolumeTier    string  `json:"volume_tier" parquet:"name=volume_tier, type=BYTE_ARRAY, convertedtype=UTF8"`
}

var csvHeader = []string{
	"site_number", "road_name", "location_desc", "road_dir", "lat", "lon",
	"class_3", "class_4", "class_5", "class_6", "class_7", "class_8", "class_9", "class_10",
	"total_vehicles", "medium_trucks", "heavy_trucks", "heavy_pct", "volume_tier",
}

// Write renders the sites in the given format. The CSV header row is
// always written, even when no sites match the filter.
func Write(w io.Writer, sites []domain.TrafficSite, breakpoints domain.TierBreakpoints, format Format) error {
	rows := buildRows(sites, breakpoints)
	switch format {
	case FormatCSV:
		return writeCSV(w, rows)
	case FormatJSON:
		return writeJSON(w, rows)
	case FormatParquet:
		return writeParquet(w, rows)
	default:
		return fmt.Errorf("unsupported export format %q", format)
	}
}

func buildRows(sites []domain.TrafficSite, breakpoints domain.TierBreakpoints) []row {
	rows := make([]row, 0, len(sites))
	for _, s := range sites {
		rows = append(rows, row{
			SiteNumber:    int64(s.SiteNumber),
			RoadName:      s.RoadName,
			LocationDesc:  s.LocationDesc,
			RoadDir:       s.RoadDir,
			Lat:           s.Geo.Lat,
			Lon:           s.Geo.Lon,
			Class3:        s.Classes.Class3,
			Class4:        s.Classes.Class4,
			Class5:        s.Classes.Class5,
			Class6:        s.Classes.Class6,
			Class7:        s.Classes.Class7,
			Class8:        s.Classes.Class8,
			Class9:        s.Classes.Class9,
			Class10:       s.Classes.Class10,
			TotalVehicles: s.TotalVolume,
			MediumTrucks:  s.MediumTrucks,
			HeavyTrucks:   s.HeavyTrucks,
			HeavyPct:      s.HeavyPercent,
			VolumeTier:    string(breakpoints.TierFor(s.TotalVolume)),
		})
	}
	return rows
}

func writeCSV(w io.Writer, rows []row) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, r := range rows {
		record := []string{
			strconv.FormatInt(r.SiteNumber, 10),
			r.RoadName,
			r.LocationDesc,
			r.RoadDir,
			formatFloat(r.Lat),
			formatFloat(r.Lon),
			formatFloat(r.Class3),
			formatFloat(r.Class4),
			formatFloat(r.Class5),
			formatFloat(r.Class6),
			formatFloat(r.Class7),
			formatFloat(r.Class8),
			formatFloat(r.Class9),
			formatFloat(r.Class10),
			formatFloat(r.TotalVehicles),
			formatFloat(r.MediumTrucks),
			formatFloat(r.HeavyTrucks),
			formatFloat(r.HeavyPct),
			r.VolumeTier,
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func writeJSON(w io.Writer, rows []row) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(rows); err != nil {
		return fmt.Errorf("write json export: %w", err)
	}
	return nil
}

func writeParquet(w io.Writer, rows []row) error {
	fw := writerfile.NewWriterFile(w)
	pw, err := writer.NewParquetWriter(fw, new(row), 4)
	if err != nil {
		return fmt.Errorf("create parquet writer: %w", err)
	}
	pw.CompressionType = parquet.CompressionCodec_SNAPPY

	for _, r := range rows {
		if err := pw.Write(r); err != nil {
			return fmt.Errorf("write parquet row: %w", err)
		}
	}
	if err := pw.WriteStop(); err != nil {
		return fmt.Errorf("finish parquet export: %w", err)
	}
	return fw.Close()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
