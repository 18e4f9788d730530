// Package archive exports combats to their JSON shape and re-imports them.
//
// An archive holds the raw log line of every event, so importing re-parses
// each line and rebuilds the combat rather than trusting derived fields.
package archive

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/ccollicutt/combatlog/pkg/combat"
	"github.com/ccollicutt/combatlog/pkg/parser"
)

// Export writes combats as an indented JSON array of combat documents.
func Export(w io.Writer, combats []*combat.Combat) error {
	docs := make([]combat.Document, len(combats))
	for i, c := range combats {
		docs[i] = c.Document()
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(docs); err != nil {
		return fmt.Errorf("encoding archive: %w", err)
	}
	return nil
}

// ExportFile writes combats to path.
func ExportFile(path string, combats []*combat.Combat) (err error) {
	f, err := os.Create(path) // #nosec G304 -- user-provided export path is expected
	if err != nil {
		return fmt.Errorf("creating archive: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("closing archive: %w", cerr)
		}
	}()

	w := bufio.NewWriter(f)
	if err := Export(w, combats); err != nil {
		return err
	}
	return w.Flush()
}

// Import reads a JSON array of combat documents, or a single document, and
// rebuilds each combat from its raw lines. Rebuilt combats are sealed and
// carry their archived map, rejection and removed entities.
func Import(r io.Reader) ([]*combat.Combat, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading archive: %w", err)
	}

	var docs []combat.Document
	trimmed := bytes.TrimSpace(data)
	switch {
	case len(trimmed) == 0:
		return nil, nil
	case trimmed[0] == '[':
		if err := json.Unmarshal(trimmed, &docs); err != nil {
			return nil, fmt.Errorf("decoding archive: %w", err)
		}
	default:
		var doc combat.Document
		if err := json.Unmarshal(trimmed, &doc); err != nil {
			return nil, fmt.Errorf("decoding archive: %w", err)
		}
		docs = []combat.Document{doc}
	}

	combats := make([]*combat.Combat, 0, len(docs))
	for i := range docs {
		c, err := Rebuild(&docs[i])
		if err != nil {
			return nil, fmt.Errorf("combat %d: %w", i, err)
		}
		combats = append(combats, c)
	}
	return combats, nil
}

// ImportFile reads an archive from path.
func ImportFile(path string) ([]*combat.Combat, error) {
	f, err := os.Open(path) // #nosec G304 -- user-provided archive path is expected
	if err != nil {
		return nil, fmt.Errorf("opening archive: %w", err)
	}
	defer f.Close()

	combats, err := Import(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return combats, nil
}

// Rebuild reconstructs a sealed combat from a document.
func Rebuild(doc *combat.Document) (*combat.Combat, error) {
	opts := combat.Options{
		MinInactivity: time.Duration(doc.MinInactivitySec * float64(time.Second)),
		CombinePets:   doc.CombinePets,
	}

	var events []*parser.CombatEvent
	groups := [][]combat.EntityDocument{doc.Players, doc.NonPlayers, doc.RemovedEntities}
	for _, group := range groups {
		for _, ed := range group {
			for _, stored := range ed.Events {
				ev, err := reparse(stored)
				if err != nil {
					return nil, err
				}
				events = append(events, ev)
			}
		}
	}

	sort.SliceStable(events, func(i, j int) bool {
		return events[i].Timestamp.Before(events[j].Timestamp)
	})

	c := combat.New(opts)
	for _, ev := range events {
		if err := c.AddEvent(ev); err != nil {
			return nil, err
		}
	}
	c.Seal()

	for _, ed := range doc.RemovedEntities {
		if removed, ok := c.RemoveEntity(ed.OwnerInternal, ed.RejectionReason); ok {
			removed.Reject(ed.RejectionReason, ed.RejectionDetails)
		}
	}
	for _, ed := range append(append([]combat.EntityDocument{}, doc.Players...), doc.NonPlayers...) {
		if !ed.Rejected {
			continue
		}
		if e, ok := c.Entity(ed.OwnerInternal); ok {
			e.Reject(ed.RejectionReason, ed.RejectionDetails)
		}
	}

	if doc.Map != nil {
		c.SetMap(*doc.Map)
	}
	if doc.Rejected {
		c.Reject(doc.RejectionReason, doc.RejectionDetails)
	}
	return c, nil
}

// reparse re-derives an event from its raw line. Documents without raw
// lines fall back to the line rendered from the stored fields.
func reparse(stored *parser.CombatEvent) (*parser.CombatEvent, error) {
	if stored == nil {
		return nil, errors.New("null event")
	}

	raw := stored.RawLine
	if raw == "" {
		raw = stored.Line()
		log.Debug().Str("file", stored.FileName).Int("line", stored.LineNumber).Msg("archived event has no raw line")
	}

	ev, err := parser.ParseEvent(stored.FileName, raw, stored.LineNumber)
	if err != nil {
		return nil, fmt.Errorf("re-parsing archived event: %w", err)
	}
	return ev, nil
}
