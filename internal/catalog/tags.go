package catalog

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/bogem/id3v2/v2"
	"github.com/dhowden/tag"
	"go.senan.xyz/taglib"
)

const (
	extMP3  = ".mp3"
	extFLAC = ".flac"
	extOpus = ".opus"
	extOgg  = ".ogg"
	extM4A  = ".m4a"
	extMP4  = ".mp4"
	extWav  = ".wav"
)

// trackTags is what the scanner needs out of a file's embedded metadata to
// populate artists/releases/tracks/genres/publishers.
type trackTags struct {
	Title       string
	Artist      string
	AlbumArtist string
	Album       string
	Genre       string
	Publisher   string // TagLib "Label"/"PUBLISHER", spec.md's publishers table
	CatalogNum  string
	Year        int
	Disc        int
	Track       int
	MBArtistID  string
	MBReleaseID string
}

// IsMusicFile reports whether path's extension is one this catalog knows
// how to extract tags and hand off to a decoder for.
func IsMusicFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case extMP3, extFLAC, extOpus, extOgg, extM4A, extMP4, extWav:
		return true
	default:
		return false
	}
}

// readTags extracts embedded metadata, preferring dhowden/tag for the
// common fields and falling back to id3v2 directly for MP3s whose UTF-16
// frames dhowden/tag mis-parses, then layering TagLib-only fields
// (publisher/catalog number/MusicBrainz ids) on top when available.
func readTags(path string) (trackTags, error) {
	f, err := os.Open(path)
	if err != nil {
		return trackTags{}, err
	}
	defer f.Close()

	var out trackTags
	m, err := tag.ReadFrom(f)
	if err != nil {
		ext := strings.ToLower(filepath.Ext(path))
		if ext == extMP3 {
			out, err = readID3v2Fallback(path)
		}
		if err != nil {
			out = trackTags{Title: filepath.Base(path)}
		}
	} else {
		track, _ := m.Track()
		disc, _ := m.Disc()
		albumArtist := m.AlbumArtist()
		if albumArtist == "" {
			albumArtist = m.Artist()
		}
		title := m.Title()
		if title == "" {
			title = filepath.Base(path)
		}
		out = trackTags{
			Title:       title,
			Artist:      m.Artist(),
			AlbumArtist: albumArtist,
			Album:       m.Album(),
			Genre:       m.Genre(),
			Year:        m.Year(),
			Disc:        disc,
			Track:       track,
		}
	}

	layerTagLibFields(path, &out)
	return out, nil
}

// layerTagLibFields adds the fields TagLib exposes that dhowden/tag and
// id3v2 don't: publisher/label, catalog number, MusicBrainz ids. Failure
// here is not fatal; the fields simply stay empty.
func layerTagLibFields(path string, out *trackTags) {
	tags, err := taglib.ReadTags(path)
	if err != nil {
		return
	}
	get := func(keys ...string) string {
		for _, k := range keys {
			if v, ok := tags[k]; ok && len(v) > 0 && v[0] != "" {
				return v[0]
			}
		}
		return ""
	}
	if v := get(taglib.Label, "LABEL", "PUBLISHER"); v != "" {
		out.Publisher = v
	}
	if v := get(taglib.CatalogNumber, "CATALOGNUMBER"); v != "" {
		out.CatalogNum = v
	}
	if v := get(taglib.MusicBrainzArtistID); v != "" {
		out.MBArtistID = v
	}
	if v := get(taglib.MusicBrainzAlbumID); v != "" {
		out.MBReleaseID = v
	}
}

// readID3v2Fallback reads the common fields directly via id3v2, used when
// dhowden/tag fails on an MP3 (typically a UTF-16-encoded ID3v2 frame).
func readID3v2Fallback(path string) (trackTags, error) {
	id3tag, err := id3v2.Open(path, id3v2.Options{Parse: true})
	if err != nil {
		return trackTags{}, err
	}
	defer id3tag.Close()

	title := id3tag.Title()
	if title == "" {
		title = filepath.Base(path)
	}
	albumArtist := getID3TextFrame(id3tag, "TPE2")
	if albumArtist == "" {
		albumArtist = id3tag.Artist()
	}

	return trackTags{
		Title:       title,
		Artist:      id3tag.Artist(),
		AlbumArtist: albumArtist,
		Album:       id3tag.Album(),
		Genre:       id3tag.Genre(),
	}, nil
}

func getID3TextFrame(t *id3v2.Tag, frameID string) string {
	frames := t.GetFrames(frameID)
	if len(frames) == 0 {
		return ""
	}
	if tf, ok := frames[0].(id3v2.TextFrame); ok {
		return tf.Text
	}
	return ""
}
