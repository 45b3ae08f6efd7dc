package resource

const (
	PropDisplayName      = "displayname"
	PropCreationDate     = "creationdate"
	PropLastModified     = "getlastmodified"
	PropETag             = "getetag"
	PropContentType      = "getcontenttype"
	PropContentLength    = "getcontentlength"
	CollectionMarkerType = "httpd/unix-directory"
)

type GetFunc func() string

// SetFunc 入参为请求中属性节点的第一个子节点的内容, 返回完整的状态行
type SetFunc func(value string) string

// ActionFunc 无参的setter/remover, 返回完整的状态行
type ActionFunc func() string

// Property 属性名到getter/setter的映射, 由每个后端的资源实现自行填充
type Property struct {
	Name   string
	Get    GetFunc
	Set    SetFunc
	Touch  ActionFunc
	Remove ActionFunc
}

type PropertyTable []*Property

func (t PropertyTable) Lookup(name string) (*Property, bool) {
	for _, p := range t {
		if p.Name == name {
			return p, true
		}
	}
	return nil, false
}

func (t PropertyTable) Names() []string {
	rs := make([]string, 0, len(t))
	for _, p := range t {
		rs = append(rs, p.Name)
	}
	return rs
}

type PropertyValue struct {
	Name  string
	Value string
}

type PropertyRequest struct {
	Name     string
	Value    string
	HasValue bool
}

type PropertyResult struct {
	Name   string
	Status string
}

// GetProperties 按声明顺序读取属性, 没有getter的属性返回空值而不是报错
func GetProperties(r IResource) []PropertyValue {
	props := r.Properties()
	rs := make([]PropertyValue, 0, len(props))
	for _, p := range props {
		v := PropertyValue{Name: p.Name}
		if p.Get != nil {
			v.Value = p.Get()
		}
		rs = append(rs, v)
	}
	return rs
}

func GetProperty(r IResource, name string) (string, bool) {
	p, ok := r.Properties().Lookup(name)
	if !ok || p.Get == nil {
		return "", false
	}
	return p.Get(), true
}

// ApplyPropertyUpdate 不支持的属性一律返回200, 不做任何修改
func ApplyPropertyUpdate(r IResource, removals []PropertyRequest, sets []PropertyRequest) ([]PropertyResult, []PropertyResult) {
	props := r.Properties()
	removed := make([]PropertyResult, 0, len(removals))
	for _, item := range removals {
		status := StatusOK
		if p, ok := props.Lookup(item.Name); ok && p.Remove != nil {
			status = p.Remove()
		}
		removed = append(removed, PropertyResult{Name: item.Name, Status: status})
	}
	set := make([]PropertyResult, 0, len(sets))
	for _, item := range sets {
		set = append(set, PropertyResult{Name: item.Name, Status: applySet(props, item)})
	}
	return removed, set
}

func applySet(props PropertyTable, item PropertyRequest) string {
	p, ok := props.Lookup(item.Name)
	if !ok {
		return StatusOK
	}
	switch {
	case p.Set != nil && item.HasValue:
		return p.Set(item.Value)
	case p.Touch != nil:
		return p.Touch()
	case p.Set != nil:
		return p.Set("")
	}
	return StatusOK
}
