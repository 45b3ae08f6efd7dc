package davxml

import (
	"bytes"
	"encoding/xml"
	"errors"
	"io"
	"strings"

	"github.com/xxxsen/davgate/daverr"
	"github.com/xxxsen/davgate/resource"
)

// PropertyItem propertyupdate中的一个属性节点
type PropertyItem struct {
	Space    string
	Name     string
	Attrs    []xml.Attr
	Value    string
	HasValue bool
}

// PropertyUpdate 删除项总是排在设置项之前, 各自保持文档顺序
type PropertyUpdate struct {
	Removals []*PropertyItem
	Sets     []*PropertyItem
}

func (u *PropertyUpdate) RemoveRequests() []resource.PropertyRequest {
	return toRequests(u.Removals)
}

func (u *PropertyUpdate) SetRequests() []resource.PropertyRequest {
	return toRequests(u.Sets)
}

func toRequests(items []*PropertyItem) []resource.PropertyRequest {
	rs := make([]resource.PropertyRequest, 0, len(items))
	for _, item := range items {
		rs = append(rs, resource.PropertyRequest{
			Name:     item.Name,
			Value:    item.Value,
			HasValue: item.HasValue,
		})
	}
	return rs
}

type propertyUpdateDecode struct {
	XMLName xml.Name          `xml:"propertyupdate"`
	Removes []propBlockDecode `xml:"remove"`
	Sets    []propBlockDecode `xml:"set"`
}

type propBlockDecode struct {
	Props []propListDecode `xml:"prop"`
}

type propListDecode struct {
	Items []propItemDecode `xml:",any"`
}

type propItemDecode struct {
	XMLName  xml.Name
	Attrs    []xml.Attr `xml:",any,attr"`
	CharData string     `xml:",chardata"`
	Inner    string     `xml:",innerxml"`
}

// CheckWellFormed 只校验xml是否合法, 不关心内容
func CheckWellFormed(body []byte) error {
	dec := xml.NewDecoder(bytes.NewReader(body))
	elements := 0
	for {
		tk, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return daverr.Wrap(daverr.KindBadRequestBody, err)
		}
		if _, ok := tk.(xml.StartElement); ok {
			elements++
		}
	}
	if elements == 0 {
		return daverr.Errorf(daverr.KindBadRequestBody, "no root element")
	}
	return nil
}

func ParsePropertyUpdate(body []byte) (*PropertyUpdate, error) {
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, daverr.Errorf(daverr.KindBadRequestBody, "empty propertyupdate body")
	}
	if err := CheckWellFormed(body); err != nil {
		return nil, err
	}
	dec := &propertyUpdateDecode{}
	if err := xml.Unmarshal(body, dec); err != nil {
		return nil, daverr.Wrap(daverr.KindBadRequestBody, err)
	}
	rs := &PropertyUpdate{}
	for _, blk := range dec.Removes {
		rs.Removals = append(rs.Removals, blk.items()...)
	}
	for _, blk := range dec.Sets {
		rs.Sets = append(rs.Sets, blk.items()...)
	}
	return rs, nil
}

func (b propBlockDecode) items() []*PropertyItem {
	rs := make([]*PropertyItem, 0, 4)
	for _, lst := range b.Props {
		for _, item := range lst.Items {
			rs = append(rs, item.toItem())
		}
	}
	return rs
}

func (d propItemDecode) toItem() *PropertyItem {
	item := &PropertyItem{
		Space: d.XMLName.Space,
		Name:  d.XMLName.Local,
		Attrs: echoAttrs(d.Attrs),
	}
	inner := strings.TrimSpace(d.Inner)
	if len(inner) == 0 {
		return item
	}
	item.HasValue = true
	item.Value = inner
	// 纯文本节点取反转义后的文本
	if !strings.Contains(inner, "<") {
		item.Value = strings.TrimSpace(d.CharData)
	}
	return item
}

// echoAttrs 回显时去掉命名空间声明, 且只保留本地名
func echoAttrs(attrs []xml.Attr) []xml.Attr {
	var rs []xml.Attr
	for _, a := range attrs {
		if a.Name.Space == "xmlns" || (len(a.Name.Space) == 0 && a.Name.Local == "xmlns") {
			continue
		}
		rs = append(rs, xml.Attr{Name: xml.Name{Local: a.Name.Local}, Value: a.Value})
	}
	return rs
}
