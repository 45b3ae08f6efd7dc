package davxml

import "encoding/xml"

const (
	NamespaceDAV = "DAV:"
	prefix       = "D:"
)

// Multistatus WebDAV多状态响应的根节点
type Multistatus struct {
	XMLName   xml.Name    `xml:"D:multistatus"`
	XMLNS     string      `xml:"xmlns:D,attr"`
	Responses []*Response `xml:"D:response"`
}

type Response struct {
	Href                string      `xml:"D:href"`
	Propstats           []*Propstat `xml:"D:propstat"`
	ResponseDescription *string     `xml:"D:responsedescription"`
}

type Propstat struct {
	Prop   Prop   `xml:"D:prop"`
	Status string `xml:"D:status"`
}

type Prop struct {
	Values       []*PropValue
	ResourceType *ResourceType `xml:"D:resourcetype"`
}

// PropValue 属性节点, 节点名在运行时确定
type PropValue struct {
	XMLName xml.Name
	Attrs   []xml.Attr `xml:",any,attr"`
	Value   string     `xml:",chardata"`
}

type ResourceType struct {
	Collection *struct{} `xml:"D:collection"`
}

func newPropValue(name string, value string, attrs []xml.Attr) *PropValue {
	return &PropValue{
		XMLName: xml.Name{Local: prefix + name},
		Attrs:   attrs,
		Value:   value,
	}
}
