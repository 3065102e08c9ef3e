package portalscout

import (
	"encoding/csv"
	"encoding/json"
	"io"

	"github.com/pkg/errors"
)

// WriteJSON writes the discovered portals as an indented JSON array.
func WriteJSON(w io.Writer, portals []Portal) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(portals); err != nil {
		return errors.Wrap(err, "[portalscout.WriteJSON] encode")
	}
	return nil
}

// WriteCSV writes the discovered portals as CSV with a header row.
func WriteCSV(w io.Writer, portals []Portal) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"url", "host", "query"}); err != nil {
		return errors.Wrap(err, "[portalscout.WriteCSV] header")
	}
	for _, p := range portals {
		if err := cw.Write([]string{p.URL, p.Host, p.Query}); err != nil {
			return errors.Wrap(err, "[portalscout.WriteCSV] row")
		}
	}
	cw.Flush()
	return errors.Wrap(cw.Error(), "[portalscout.WriteCSV] flush")
}
