package errorcodes

import (
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path"

	"gopkg.in/yaml.v3"

	"obsidian-debug/internal/consts"
	"obsidian-debug/internal/types"
)

// DefaultManifest 内置清单路径（相对 embeddedData）
const DefaultManifest = "data/protocols.yaml"

// embeddedData 随二进制发布的协议清单与错误码表（受版本控制，运行时不可编辑）
//
//go:embed data/protocols.yaml data/*.json
var embeddedData embed.FS

// ProtocolConfig 清单中的一个协议
type ProtocolConfig struct {
	Name      string       `yaml:"name"`
	ProgramID string       `yaml:"program_id"`
	Version   string       `yaml:"version"`
	Type      ProtocolType `yaml:"type"`
	Errors    string       `yaml:"errors"` // 错误码 JSON 文件，相对清单所在目录
}

// Manifest 协议清单
type Manifest struct {
	Version   int              `yaml:"version"`
	Protocols []ProtocolConfig `yaml:"protocols"`
}

// LoadManifest 从 fsys 读取并解析清单
func LoadManifest(fsys fs.FS, manifestPath string) (*Manifest, error) {
	raw, err := fs.ReadFile(fsys, manifestPath)
	if err != nil {
		return nil, fmt.Errorf("read manifest %s: %w", manifestPath, err)
	}
	var m Manifest
	if err := yaml.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("parse manifest %s: %w", manifestPath, err)
	}
	return &m, nil
}

// Validate 校验清单：协议名唯一、programId 唯一且为合法 base58（框架协议必须使用通配符），至多一个框架协议
func (m *Manifest) Validate() error {
	names := make(map[string]struct{}, len(m.Protocols))
	programs := make(map[string]string, len(m.Protocols))
	frameworks := 0

	for i, pc := range m.Protocols {
		if pc.Name == "" {
			return fmt.Errorf("protocol #%d: missing name", i)
		}
		if _, dup := names[pc.Name]; dup {
			return fmt.Errorf("protocol %q: duplicate name", pc.Name)
		}
		names[pc.Name] = struct{}{}

		switch pc.Type {
		case ProtocolTypeFramework:
			frameworks++
			if pc.ProgramID != consts.FrameworkProgramWildcard {
				return fmt.Errorf("protocol %q: framework must use program_id %q", pc.Name, consts.FrameworkProgramWildcard)
			}
			continue
		case ProtocolTypeProgram, "":
		default:
			return fmt.Errorf("protocol %q: unknown type %q", pc.Name, pc.Type)
		}

		if !types.IsValidPubkey(pc.ProgramID) {
			return fmt.Errorf("protocol %q: invalid program_id %q", pc.Name, pc.ProgramID)
		}
		if other, dup := programs[pc.ProgramID]; dup {
			return fmt.Errorf("protocol %q: program_id %s already used by %q", pc.Name, pc.ProgramID, other)
		}
		programs[pc.ProgramID] = pc.Name
	}

	if frameworks > 1 {
		return fmt.Errorf("manifest declares %d framework protocols, at most one allowed", frameworks)
	}
	return nil
}

// BuildProtocols 校验清单并加载每个协议的错误码表
func BuildProtocols(fsys fs.FS, manifestPath string) ([]*Protocol, error) {
	m, err := LoadManifest(fsys, manifestPath)
	if err != nil {
		return nil, err
	}
	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("invalid manifest %s: %w", manifestPath, err)
	}

	dir := path.Dir(manifestPath)
	protocols := make([]*Protocol, 0, len(m.Protocols))
	for _, pc := range m.Protocols {
		table := map[uint32]ErrorInfo{}
		if pc.Errors != "" {
			raw, err := fs.ReadFile(fsys, path.Join(dir, pc.Errors))
			if err != nil {
				return nil, fmt.Errorf("protocol %q: read errors file: %w", pc.Name, err)
			}
			if table, err = BuildErrorTable(raw); err != nil {
				return nil, fmt.Errorf("protocol %q: %w", pc.Name, err)
			}
		}
		protocols = append(protocols, NewProtocol(pc.Name, pc.ProgramID, pc.Version, pc.Type, table))
	}
	return protocols, nil
}

// LoadInto 把 fsys 中的清单注册到 r，可重复调用（覆盖而非重复）
func LoadInto(r *Registry, fsys fs.FS, manifestPath string) error {
	protocols, err := BuildProtocols(fsys, manifestPath)
	if err != nil {
		return err
	}
	for _, p := range protocols {
		r.Register(p)
	}
	return nil
}

// LoadDefaults 注册内置协议
func LoadDefaults(r *Registry) error {
	return LoadInto(r, embeddedData, DefaultManifest)
}

// LoadDir 注册磁盘目录中的清单（用于替换或补充内置数据）
func LoadDir(r *Registry, dir, manifestFile string) error {
	return LoadInto(r, os.DirFS(dir), manifestFile)
}

// NewDefaultRegistry 构造只包含内置协议的注册表
func NewDefaultRegistry() (*Registry, error) {
	r := NewRegistry()
	if err := LoadDefaults(r); err != nil {
		return nil, err
	}
	return r, nil
}

// MustNewDefaultRegistry 内置数据损坏属于编程错误，直接 panic
func MustNewDefaultRegistry() *Registry {
	r, err := NewDefaultRegistry()
	if err != nil {
		panic(fmt.Errorf("load embedded error catalog: %w", err))
	}
	return r
}
