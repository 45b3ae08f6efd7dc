package davxml

import (
	"bytes"
	"encoding/xml"
	"fmt"

	"github.com/xxxsen/davgate/resource"
)

func newMultistatus() *Multistatus {
	return &Multistatus{XMLNS: NamespaceDAV}
}

// BuildPropfind 每个资源一个response, resourcetype总是输出, 仅集合带collection标记
func BuildPropfind(resources []resource.IResource) *Multistatus {
	ms := newMultistatus()
	for _, res := range resources {
		prop := Prop{ResourceType: &ResourceType{}}
		for _, v := range resource.GetProperties(res) {
			prop.Values = append(prop.Values, newPropValue(v.Name, v.Value, nil))
		}
		if res.IsCollection() {
			prop.ResourceType.Collection = &struct{}{}
		}
		status := res.Status()
		if len(status) == 0 {
			status = resource.StatusOK
		}
		ms.Responses = append(ms.Responses, &Response{
			Href: res.Href(),
			Propstats: []*Propstat{
				{Prop: prop, Status: status},
			},
		})
	}
	return ms
}

// BuildProppatch removed/set与update中的条目按下标一一对应
func BuildProppatch(href string, update *PropertyUpdate, removed []resource.PropertyResult, set []resource.PropertyResult) *Multistatus {
	rsp := &Response{Href: href}
	appendResults := func(items []*PropertyItem, results []resource.PropertyResult) {
		for idx, r := range results {
			var attrs []xml.Attr
			if idx < len(items) {
				attrs = items[idx].Attrs
			}
			rsp.Propstats = append(rsp.Propstats, &Propstat{
				Prop:   Prop{Values: []*PropValue{newPropValue(r.Name, "", attrs)}},
				Status: r.Status,
			})
		}
	}
	if update == nil {
		update = &PropertyUpdate{}
	}
	appendResults(update.Removals, removed)
	appendResults(update.Sets, set)
	desc := ""
	rsp.ResponseDescription = &desc
	ms := newMultistatus()
	ms.Responses = append(ms.Responses, rsp)
	return ms
}

func Marshal(ms *Multistatus) ([]byte, error) {
	buf := bytes.NewBufferString(xml.Header)
	enc := xml.NewEncoder(buf)
	if err := enc.Encode(ms); err != nil {
		return nil, fmt.Errorf("encode multistatus failed, err:%w", err)
	}
	if err := enc.Flush(); err != nil {
		return nil, fmt.Errorf("flush multistatus failed, err:%w", err)
	}
	return buf.Bytes(), nil
}
