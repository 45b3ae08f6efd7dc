package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/xxxsen/common/logger"
)

const (
	BackendFile = "file"
	BackendDB   = "db"
	BackendMem  = "mem"
)

type WebdavConfig struct {
	Prefix        string   `json:"prefix"`
	Backend       string   `json:"backend"`
	BaseDir       string   `json:"base_dir"`
	Absolute      bool     `json:"absolute"`
	InstallRoot   string   `json:"install_root"`
	PerUserDir    bool     `json:"per_user_dir"`
	MaxDepth      int      `json:"max_depth"`
	ExtraMethods  []string `json:"extra_methods"`
	ExtraVersions []string `json:"extra_versions"`
}

type CacheConfig struct {
	Kind        string `json:"kind"`
	Size        int    `json:"size"`
	TTLSec      int64  `json:"ttl_sec"`
	MaxItemSize int64  `json:"max_item_size"` //单个内容超过该大小时不缓存
}

type Config struct {
	Bind         string            `json:"bind"`
	LogInfo      logger.LogConfig  `json:"log_info"`
	DBFile       string            `json:"db_file"`
	UserInfo     map[string]string `json:"user_info"`
	PolicyFile   string            `json:"policy_file"`
	TrustProxy   bool              `json:"trust_proxy"`
	MaxChunkBody int64             `json:"max_chunk_body"`
	Webdav       WebdavConfig      `json:"webdav"`
	Cache        CacheConfig       `json:"cache"`
}

func defaultConfig() *Config {
	return &Config{
		Bind:   ":9901",
		DBFile: "./davgate.db",
		Webdav: WebdavConfig{
			Prefix:   "/webdav",
			Backend:  BackendFile,
			BaseDir:  "./data",
			MaxDepth: 500,
		},
		Cache: CacheConfig{
			Kind:        "lru",
			Size:        1024,
			MaxItemSize: 4 * 1024 * 1024,
		},
	}
}

// Parse 默认按json解析, .toml后缀的文件先转换为json再解析, 两种格式共用一套字段名
func Parse(f string) (*Config, error) {
	raw, err := os.ReadFile(f)
	if err != nil {
		return nil, fmt.Errorf("read file:%w", err)
	}
	if strings.EqualFold(filepath.Ext(f), ".toml") {
		if raw, err = tomlToJSON(raw); err != nil {
			return nil, err
		}
	}
	c := defaultConfig()
	if err := json.Unmarshal(raw, c); err != nil {
		return nil, fmt.Errorf("decode json failed, err:%w", err)
	}
	if err := c.validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func tomlToJSON(raw []byte) ([]byte, error) {
	m := make(map[string]interface{})
	if _, err := toml.Decode(string(raw), &m); err != nil {
		return nil, fmt.Errorf("decode toml failed, err:%w", err)
	}
	data, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("convert toml to json failed, err:%w", err)
	}
	return data, nil
}

func (c *Config) validate() error {
	switch c.Webdav.Backend {
	case BackendFile, BackendDB, BackendMem:
	default:
		return fmt.Errorf("unknown webdav backend:%s", c.Webdav.Backend)
	}
	if c.Webdav.Backend == BackendFile && len(c.Webdav.BaseDir) == 0 {
		return fmt.Errorf("base dir is required by file backend")
	}
	if c.Webdav.PerUserDir && len(c.UserInfo) == 0 {
		return fmt.Errorf("per user dir requires user info")
	}
	return nil
}

// Redacted 返回用于打印的副本, 隐藏用户密码
func (c *Config) Redacted() *Config {
	cp := *c
	if len(c.UserInfo) > 0 {
		cp.UserInfo = make(map[string]string, len(c.UserInfo))
		for u := range c.UserInfo {
			cp.UserInfo[u] = "******"
		}
	}
	return &cp
}
