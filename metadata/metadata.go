// Package metadata decodes the NCM container's embedded metadata block.
//
// Metadata is best-effort: every decoding failure degrades to an empty
// record plus a warning, and an absent block is a normal case. Audio
// decryption never depends on this package succeeding.
package metadata

import (
	"bytes"
	"encoding/base64"
	"encoding/json"

	ncm "github.com/mellowave/go-ncm"
	"github.com/mellowave/go-ncm/crypto"
)

// producerPrefix precedes the base64 payload in the obfuscation-reversed
// block.
var producerPrefix = []byte("163 key(Don't modify):")

// recordPrefix precedes the JSON document in the decrypted payload.
var recordPrefix = []byte("music:")

// Artist is one entry of the record's artist list, serialized by the
// producer as a ["name", id] pair.
type Artist struct {
	Name string
	ID   int64
}

func (a *Artist) UnmarshalJSON(data []byte) error {
	var pair []json.RawMessage
	if err := json.Unmarshal(data, &pair); err != nil {
		return err
	}
	if len(pair) > 0 {
		if err := json.Unmarshal(pair[0], &a.Name); err != nil {
			return err
		}
	}
	if len(pair) > 1 {
		// Ignored when not numeric, some producers emit the id as a string.
		_ = json.Unmarshal(pair[1], &a.ID)
	}
	return nil
}

// Record is the parsed metadata block. Fields missing from the container are
// left zero-valued, never defaulted to placeholders. The record is immutable
// once parsed.
type Record struct {
	MusicID     int64    `json:"musicId"`
	Title       string   `json:"musicName"`
	Artists     []Artist `json:"artist"`
	Album       string   `json:"album"`
	AlbumPicURL string   `json:"albumPic"`
	Duration    int64    `json:"duration"`
	Bitrate     int      `json:"bitrate"`
	Format      string   `json:"format"`
	Alias       []string `json:"alias"`
}

// Empty reports whether the record carries no information at all.
func (r *Record) Empty() bool {
	return r.Title == "" && len(r.Artists) == 0 && r.Album == "" && r.MusicID == 0
}

// ArtistNames joins the artist names for display and tagging.
func (r *Record) ArtistNames() string {
	var buf bytes.Buffer
	for i, a := range r.Artists {
		if i > 0 {
			buf.WriteString(", ")
		}
		buf.WriteString(a.Name)
	}
	return buf.String()
}

// Decode parses a raw metadata block. A zero-length block yields an empty
// record with no warnings; any failure yields an empty record plus a warning
// rather than an error.
func Decode(raw []byte) (*Record, []ncm.Warning) {
	if len(raw) == 0 {
		return &Record{}, nil
	}

	work := make([]byte, len(raw))
	for i, b := range raw {
		work[i] = b ^ crypto.MetaXorMask
	}
	work = bytes.TrimPrefix(work, producerPrefix)

	payload, err := base64.StdEncoding.DecodeString(string(work))
	if err != nil {
		return degraded("metadata base64", err)
	}

	plain, err := crypto.MetaDecrypt(payload)
	if err != nil {
		return degraded("metadata decrypt", err)
	}
	plain = bytes.TrimPrefix(plain, recordPrefix)

	var rec Record
	if err := json.Unmarshal(plain, &rec); err != nil {
		return degraded("metadata parse", err)
	}

	return &rec, nil
}

func degraded(stage string, err error) (*Record, []ncm.Warning) {
	return &Record{}, []ncm.Warning{{Stage: stage, Err: err}}
}
