package store

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"strconv"
)

// ExportCSV writes one run as CSV: a header row, then one row per
// (trajectory, timestep) with the labelled value of every species.
func ExportCSV(w io.Writer, data *RunData) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	header := []string{"trajectory", "time"}
	header = append(header, data.Species...)
	if err := cw.Write(header); err != nil {
		return err
	}

	for traj := range data.Concentrations {
		for k, t := range data.Times {
			row := []string{
				strconv.Itoa(traj),
				strconv.FormatFloat(t, 'f', 6, 64),
			}
			for sp := range data.Species {
				row = append(row, strconv.FormatFloat(data.ValueAt(traj, k, sp), 'g', -1, 64))
			}
			if err := cw.Write(row); err != nil {
				return err
			}
		}
	}
	return nil
}

// ExportJSON writes the run metadata and payload as indented JSON.
func ExportJSON(w io.Writer, meta *RunMetadata, data *RunData) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(struct {
		Run  *RunMetadata `json:"run"`
		Data *RunData     `json:"data"`
	}{meta, data})
}
