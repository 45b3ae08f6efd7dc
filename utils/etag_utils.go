package utils

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"

	"github.com/cespare/xxhash/v2"
)

// EncodeID 把数值id编码为定长的16进制字符串, 用作缓存key
func EncodeID(id uint64) string {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, id)
	return hex.EncodeToString(buf)
}

func DecodeID(xid string) (uint64, error) {
	raw, err := hex.DecodeString(xid)
	if err != nil {
		return 0, err
	}
	if len(raw) != 8 {
		return 0, fmt.Errorf("invalid id length:%d", len(raw))
	}
	return binary.BigEndian.Uint64(raw), nil
}

// HashETag 对id/size/mtime做xxhash, 任一字段变化etag都会变化
func HashETag(id uint64, size int64, mtime int64) string {
	buf := make([]byte, 24)
	binary.BigEndian.PutUint64(buf, id)
	binary.BigEndian.PutUint64(buf[8:], uint64(size))
	binary.BigEndian.PutUint64(buf[16:], uint64(mtime))
	return fmt.Sprintf("%x", xxhash.Sum64(buf))
}
