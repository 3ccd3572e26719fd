package domain

import (
	"encoding/base64"
	"encoding/binary"
	"hash/crc32"
	"strconv"
	"time"
)

// SmallHash derives the 6-character permalink identifier for a bookmark.
// It hashes the creation timestamp plus the id, so two live bookmarks can
// never collide (ids are unique) and the hash is stable across reloads.
func SmallHash(created time.Time, id int) string {
	sum := crc32.ChecksumIEEE([]byte(created.Format("20060102_150405") + strconv.Itoa(id)))

	var buf [4]byte
	binary.BigEndian.PutUint32(buf[:], sum)
	return base64.RawURLEncoding.EncodeToString(buf[:])
}
