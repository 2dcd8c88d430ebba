package media

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/tessro/syncstream/internal/core"
	"github.com/tessro/syncstream/internal/errors"
)

// Extensions accepted by the scanner. Decoding is the player collaborator's
// problem; the scanner only needs a stable ordinal list.
var audioExtensions = map[string]bool{
	".mp3":  true,
	".wav":  true,
	".flac": true,
	".ogg":  true,
	".m4a":  true,
}

// Scan enumerates the audio files directly under dir, sorted by file name so
// that every participant derives the same ordinal track indexes from the same
// files. Track identity across nodes is by index only.
func Scan(dir string) ([]core.Track, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read media dir: %w", err)
	}

	var tracks []core.Track
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if !audioExtensions[strings.ToLower(filepath.Ext(name))] {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		tracks = append(tracks, core.Track{
			Name: strings.TrimSuffix(name, filepath.Ext(name)),
			Path: filepath.Join(dir, name),
			Size: info.Size(),
		})
	}

	if len(tracks) == 0 {
		return nil, fmt.Errorf("%w in %s", errors.ErrNoTracks, dir)
	}

	sort.Slice(tracks, func(i, j int) bool { return tracks[i].Name < tracks[j].Name })
	for i := range tracks {
		tracks[i].Index = i
	}
	return tracks, nil
}

// Reindex renumbers a filtered selection so indexes stay dense and ordinal.
// Used after the leader picks a subset of the enumerated tracks.
func Reindex(tracks []core.Track) []core.Track {
	out := make([]core.Track, len(tracks))
	copy(out, tracks)
	for i := range out {
		out[i].Index = i
	}
	return out
}
