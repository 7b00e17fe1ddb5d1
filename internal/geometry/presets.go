package geometry

import (
	_ "embed"
	"fmt"
	"strings"

	"github.com/gocarina/gocsv"
)

// presetRow is the CSV row shape for a named geometry preset. Modeled on
// disks/disks.go's DiskGeometry, which decodes a similar embedded CSV of
// named disk geometries with gocsv.
type presetRow struct {
	Slug        string `csv:"slug"`
	BlockSize   uint32 `csv:"block_size"`
	BlocksCount uint32 `csv:"blocks_count"`
	InodesCount uint32 `csv:"inodes_count"`
	InodeSize   uint32 `csv:"inode_size"`
	Notes       string `csv:"notes"`
}

//go:embed presets.csv
var presetsRawCSV string

var presets map[string]Geometry

func init() {
	presets = make(map[string]Geometry)
	reader := strings.NewReader(presetsRawCSV)
	err := gocsv.UnmarshalToCallback(reader, func(row presetRow) error {
		if _, exists := presets[row.Slug]; exists {
			return fmt.Errorf("duplicate geometry preset %q", row.Slug)
		}
		presets[row.Slug] = Geometry{
			BlockSize:      row.BlockSize,
			BlocksCount:    row.BlocksCount,
			InodesCount:    row.InodesCount,
			InodeSize:      row.InodeSize,
			BlocksPerGroup: row.BlocksCount,
			InodesPerGroup: row.InodesCount,
		}
		return nil
	})
	if err != nil {
		panic(fmt.Sprintf("geometry: failed to parse embedded presets.csv: %s", err))
	}
}

// Preset returns a named geometry preset, e.g. "default", "tiny", "large".
func Preset(slug string) (Geometry, error) {
	g, ok := presets[slug]
	if !ok {
		return Geometry{}, fmt.Errorf("no geometry preset named %q", slug)
	}
	return g, nil
}

// PresetNames returns the list of known preset slugs.
func PresetNames() []string {
	names := make([]string, 0, len(presets))
	for name := range presets {
		names = append(names, name)
	}
	return names
}
