package storage

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"strconv"
)

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// ExportCSV writes every recorded body state of a run, one row per body per frame.
func (s *Store) ExportCSV(runID string, w io.Writer) error {
	db, err := s.open(runID)
	if err != nil {
		return err
	}
	defer db.Close()

	rows, err := db.Query(queryAll)
	if err != nil {
		return err
	}
	defer rows.Close()

	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"frame", "time", "id", "name", "x", "y", "z", "vx", "vy", "vz"}); err != nil {
		return err
	}

	for rows.Next() {
		var (
			frame, id int
			t         float64
			name      string
			v         [6]float64
		)
		if err := rows.Scan(&frame, &t, &id, &name, &v[0], &v[1], &v[2], &v[3], &v[4], &v[5]); err != nil {
			return err
		}
		row := []string{strconv.Itoa(frame), formatFloat(t), strconv.Itoa(id), name}
		for _, x := range v {
			row = append(row, formatFloat(x))
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	if err := rows.Err(); err != nil {
		return err
	}

	cw.Flush()
	return cw.Error()
}

type ExportFrame struct {
	Frame  int         `json:"frame"`
	Time   float64     `json:"time"`
	Bodies []BodyState `json:"bodies"`
}

type ExportData struct {
	Run    RunMetadata   `json:"run"`
	Frames []ExportFrame `json:"frames"`
}

// ExportJSON writes the run metadata and all frames as one JSON document.
func (s *Store) ExportJSON(runID string, w io.Writer) error {
	meta, err := s.Load(runID)
	if err != nil {
		return err
	}

	db, err := s.open(runID)
	if err != nil {
		return err
	}
	defer db.Close()

	rows, err := db.Query(queryAll)
	if err != nil {
		return err
	}
	defer rows.Close()

	data := ExportData{Run: *meta, Frames: make([]ExportFrame, 0, meta.Frames)}
	for rows.Next() {
		var (
			frame int
			t     float64
			b     BodyState
		)
		err := rows.Scan(&frame, &t, &b.ID, &b.Name,
			&b.Position[0], &b.Position[1], &b.Position[2],
			&b.Velocity[0], &b.Velocity[1], &b.Velocity[2])
		if err != nil {
			return err
		}
		if n := len(data.Frames); n == 0 || data.Frames[n-1].Frame != frame {
			data.Frames = append(data.Frames, ExportFrame{Frame: frame, Time: t})
		}
		last := &data.Frames[len(data.Frames)-1]
		last.Bodies = append(last.Bodies, b)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(data)
}
