package input

import (
	"bufio"
	"encoding/csv"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/turtacn/MolVista/internal/infrastructure/logging"
	"github.com/turtacn/MolVista/pkg/errors"
	mtypes "github.com/turtacn/MolVista/pkg/types/molecule"
)

// SDFEntry is one molecule block from an SD file: the molfile title line
// plus the associated data fields.  Only V2000 connection tables are
// recognized; the atom and bond blocks themselves are skipped because
// SMILES is carried as a data field.
type SDFEntry struct {
	Title  string
	Fields map[string]string
}

// smilesFieldNames are the data-field tags accepted as the SMILES source,
// checked case-insensitively in order.
var smilesFieldNames = []string{"SMILES", "smiles", "canonical_smiles", "Canonical_SMILES"}

// ReadSDF parses all molecule blocks from an SD file.
func ReadSDF(path string) ([]SDFEntry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeInputUnreadable, "cannot open input file").
			WithDetail("path=" + path)
	}
	defer f.Close()

	var entries []SDFEntry
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	var block []string
	flush := func() {
		if len(block) == 0 {
			return
		}
		entries = append(entries, parseSDFBlock(block))
		block = block[:0]
	}
	for sc.Scan() {
		line := sc.Text()
		if strings.TrimSpace(line) == "$$$$" {
			flush()
			continue
		}
		block = append(block, line)
	}
	if err := sc.Err(); err != nil {
		return nil, errors.Wrap(err, errors.CodeInputParse, "cannot read SD file").
			WithDetail("path=" + path)
	}
	// Trailing block without a $$$$ terminator still counts if it holds
	// anything beyond blank lines.
	if hasContent(block) {
		flush()
	}

	if len(entries) == 0 {
		return nil, errors.New(errors.CodeInputParse, "no molecule blocks found in SD file").
			WithDetail("path=" + path)
	}
	return entries, nil
}

func hasContent(block []string) bool {
	for _, l := range block {
		if strings.TrimSpace(l) != "" {
			return true
		}
	}
	return false
}

// parseSDFBlock extracts the title line and the > <tag> data fields from
// one molecule block.  Data field values run until the next blank line.
func parseSDFBlock(lines []string) SDFEntry {
	entry := SDFEntry{Fields: map[string]string{}}
	if len(lines) > 0 {
		entry.Title = strings.TrimSpace(lines[0])
	}

	i := 0
	for i < len(lines) {
		line := lines[i]
		if !strings.HasPrefix(strings.TrimSpace(line), ">") {
			i++
			continue
		}
		tag := parseFieldTag(line)
		i++
		var value []string
		for i < len(lines) && strings.TrimSpace(lines[i]) != "" {
			value = append(value, strings.TrimSpace(lines[i]))
			i++
		}
		if tag != "" {
			entry.Fields[tag] = strings.Join(value, "\n")
		}
	}
	return entry
}

// parseFieldTag pulls the tag name out of a data header like "> <pIC50>" or
// ">  <SMILES>  (1)".
func parseFieldTag(line string) string {
	open := strings.IndexByte(line, '<')
	if open < 0 {
		return ""
	}
	end := strings.IndexByte(line[open:], '>')
	if end < 0 {
		return ""
	}
	return strings.TrimSpace(line[open+1 : open+end])
}

// SMILES returns the entry's SMILES data field, if present.
func (e SDFEntry) SMILES() (string, bool) {
	for _, name := range smilesFieldNames {
		for tag, v := range e.Fields {
			if strings.EqualFold(tag, name) && strings.TrimSpace(v) != "" {
				return strings.TrimSpace(v), true
			}
		}
	}
	return "", false
}

// ReadSDFRecords converts SD entries into the same raw record shape the CSV
// loader produces.  Entries without a SMILES data field come back with an
// empty SMILES and are skipped downstream with the usual report.
func ReadSDFRecords(path string, log logging.Logger) ([]RawRecord, error) {
	entries, err := ReadSDF(path)
	if err != nil {
		return nil, err
	}

	records := make([]RawRecord, 0, len(entries))
	missing := 0
	for i, e := range entries {
		rec := RawRecord{Row: i + 1, Name: e.Title}
		if rec.Name == "" {
			rec.Name = GeneratedName(i + 1)
		}
		if s, ok := e.SMILES(); ok {
			rec.SMILES = s
		} else {
			missing++
		}
		for tag, v := range e.Fields {
			if isSMILESTag(tag) {
				continue
			}
			num, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
			if err != nil {
				continue
			}
			if rec.Properties == nil {
				rec.Properties = map[string]float64{}
			}
			rec.Properties[mtypes.NormalizeKey(tag)] = num
		}
		records = append(records, rec)
	}

	if missing > 0 {
		log.Warn("SD entries without a SMILES data field will be skipped",
			logging.String("path", path),
			logging.Int("count", missing))
	}
	log.Info("loaded SD file", logging.String("path", path), logging.Int("molecules", len(records)))
	return records, nil
}

func isSMILESTag(tag string) bool {
	for _, name := range smilesFieldNames {
		if strings.EqualFold(tag, name) {
			return true
		}
	}
	return false
}

// ConvertSDFToCSV writes the SD file's entries as a CSV table with SMILES
// and Name columns followed by the union of data-field tags in sorted
// order.  It returns the number of rows written.
func ConvertSDFToCSV(inPath, outPath string, log logging.Logger) (int, error) {
	entries, err := ReadSDF(inPath)
	if err != nil {
		return 0, err
	}

	tagSet := map[string]struct{}{}
	for _, e := range entries {
		for tag := range e.Fields {
			if !isSMILESTag(tag) {
				tagSet[tag] = struct{}{}
			}
		}
	}
	tags := make([]string, 0, len(tagSet))
	for t := range tagSet {
		tags = append(tags, t)
	}
	sort.Strings(tags)

	out, err := os.Create(outPath)
	if err != nil {
		return 0, errors.Wrap(err, errors.CodeStorageError, "cannot create output CSV").
			WithDetail("path=" + outPath)
	}
	defer out.Close()

	w := csv.NewWriter(out)
	header := append([]string{"SMILES", "Name"}, tags...)
	if err := w.Write(header); err != nil {
		return 0, errors.Wrap(err, errors.CodeStorageError, "cannot write output CSV")
	}

	written := 0
	for i, e := range entries {
		smiles, ok := e.SMILES()
		if !ok {
			log.Warn("skipping SD entry without SMILES data field",
				logging.Int("entry", i+1),
				logging.String("title", e.Title))
			continue
		}
		name := e.Title
		if name == "" {
			name = GeneratedName(i + 1)
		}
		row := make([]string, 0, len(header))
		row = append(row, smiles, name)
		for _, t := range tags {
			row = append(row, e.Fields[t])
		}
		if err := w.Write(row); err != nil {
			return written, errors.Wrap(err, errors.CodeStorageError, "cannot write output CSV")
		}
		written++
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return written, errors.Wrap(err, errors.CodeStorageError, "cannot flush output CSV")
	}

	log.Info("converted SD file to CSV",
		logging.String("input", inPath),
		logging.String("output", outPath),
		logging.Int("rows", written),
		logging.Int("skipped", len(entries)-written))
	return written, nil
}

// DetectFormat guesses the loader to use from the file extension.
func DetectFormat(path string) string {
	lower := strings.ToLower(path)
	switch {
	case strings.HasSuffix(lower, ".sdf") || strings.HasSuffix(lower, ".sd") || strings.HasSuffix(lower, ".mol"):
		return "sdf"
	default:
		return "csv"
	}
}

// Load reads the compound table at path with the loader DetectFormat picks.
func Load(path string, opts CSVOptions, log logging.Logger) ([]RawRecord, error) {
	if DetectFormat(path) == "sdf" {
		return ReadSDFRecords(path, log)
	}
	return ReadCSV(path, opts, log)
}
