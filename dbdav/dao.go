package dbdav

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/didi/gendry/builder"
	"github.com/xxxsen/common/database"
	"github.com/xxxsen/common/database/dbkit"
	"github.com/xxxsen/davgate/daverr"
)

const (
	listPageSize = 128
)

func (p *Provider) entryTable() string {
	return "dav_entry_tab"
}

func (p *Provider) contentTable() string {
	return "dav_content_tab"
}

func splitItems(name string) []string {
	items := strings.Split(name, "/")
	rs := make([]string, 0, len(items))
	for _, item := range items {
		if len(item) == 0 || item == "." {
			continue
		}
		rs = append(rs, item)
	}
	return rs
}

func (p *Provider) txSearchEntry(ctx context.Context, q database.IQueryer, pid uint64, name string) (*entryTab, bool, error) {
	where := map[string]interface{}{
		"parent_entry_id": pid,
		"file_name":       name,
		"_limit":          []uint{0, 1},
	}
	rs := make([]*entryTab, 0, 1)
	if err := dbkit.SimpleQuery(ctx, q, p.entryTable(), where, &rs, dbkit.ScanWithTagName("json")); err != nil {
		return nil, false, err
	}
	if len(rs) == 0 {
		return nil, false, nil
	}
	return rs[0], true, nil
}

func (p *Provider) txGetRoot(ctx context.Context, q database.IQueryer) (*entryTab, bool, error) {
	return p.txSearchEntry(ctx, q, rootParentID, rootName)
}

func (p *Provider) txCreateRoot(ctx context.Context, tx database.IQueryExecer) (*entryTab, error) {
	ent, ok, err := p.txGetRoot(ctx, tx)
	if err != nil {
		return nil, err
	}
	if ok {
		return ent, nil
	}
	now := time.Now().UnixMilli()
	if _, err := p.txCreateEntry(ctx, tx, &entryTab{
		ParentEntryId: rootParentID,
		FileKind:      fileKindDir,
		Ctime:         now,
		Mtime:         now,
		FileMode:      defaultDirMode,
		FileName:      rootName,
	}); err != nil {
		return nil, err
	}
	ent, ok, err = p.txGetRoot(ctx, tx)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("create root but still not found")
	}
	return ent, nil
}

// txResolve 逐级查找路径对应的记录, 中间节点不是目录时视为不存在
func (p *Provider) txResolve(ctx context.Context, q database.IQueryer, name string) (*entryTab, bool, error) {
	ent, ok, err := p.txGetRoot(ctx, q)
	if err != nil || !ok {
		return nil, false, err
	}
	for _, item := range splitItems(name) {
		if !ent.IsDir() {
			return nil, false, nil
		}
		ent, ok, err = p.txSearchEntry(ctx, q, ent.EntryId, item)
		if err != nil || !ok {
			return nil, false, err
		}
	}
	return ent, true, nil
}

// txResolveParent 返回父目录记录, 父目录不存在或不是目录时返回409
func (p *Provider) txResolveParent(ctx context.Context, q database.IQueryer, name string) (*entryTab, string, error) {
	items := splitItems(name)
	if len(items) == 0 {
		return nil, "", daverr.Errorf(daverr.KindForbidden, "root has no parent")
	}
	parent := "/" + strings.Join(items[:len(items)-1], "/")
	ent, ok, err := p.txResolve(ctx, q, parent)
	if err != nil {
		return nil, "", err
	}
	if !ok {
		return nil, "", daverr.Errorf(daverr.KindConflict409, "parent not found, path:%s", parent)
	}
	if !ent.IsDir() {
		return nil, "", daverr.Errorf(daverr.KindConflict409, "parent is not collection, path:%s", parent)
	}
	return ent, items[len(items)-1], nil
}

func (p *Provider) txCreateEntry(ctx context.Context, exec database.IExecer, ent *entryTab) (uint64, error) {
	eid := p.c.idfn()
	data := []map[string]interface{}{
		{
			"entry_id":        eid,
			"parent_entry_id": ent.ParentEntryId,
			"file_kind":       ent.FileKind,
			"ctime":           ent.Ctime,
			"mtime":           ent.Mtime,
			"file_size":       ent.FileSize,
			"file_mode":       ent.FileMode,
			"file_name":       ent.FileName,
			"content_id":      ent.ContentId,
		},
	}
	sql, args, err := builder.BuildInsert(p.entryTable(), data)
	if err != nil {
		return 0, err
	}
	rs, err := exec.ExecContext(ctx, sql, args...)
	if err != nil {
		return 0, err
	}
	cnt, err := rs.RowsAffected()
	if err != nil {
		return 0, err
	}
	if cnt == 0 {
		return 0, fmt.Errorf("insert record failed, no row inserted")
	}
	return eid, nil
}

func (p *Provider) txUpdateEntry(ctx context.Context, exec database.IExecer, entryid uint64, update map[string]interface{}) error {
	where := map[string]interface{}{
		"entry_id": entryid,
	}
	sql, args, err := builder.BuildUpdate(p.entryTable(), where, update)
	if err != nil {
		return err
	}
	rs, err := exec.ExecContext(ctx, sql, args...)
	if err != nil {
		return err
	}
	cnt, err := rs.RowsAffected()
	if err != nil {
		return err
	}
	if cnt == 0 {
		return fmt.Errorf("no row affected, entry id:%d", entryid)
	}
	return nil
}

func (p *Provider) txChangeParent(ctx context.Context, exec database.IExecer, entryid uint64, parentid uint64, newname string) error {
	return p.txUpdateEntry(ctx, exec, entryid, map[string]interface{}{
		"parent_entry_id": parentid,
		"file_name":       newname,
	})
}

func (p *Provider) txListDir(ctx context.Context, q database.IQueryer, parentid uint64, offset, limit int64) ([]*entryTab, error) {
	where := map[string]interface{}{
		"parent_entry_id": parentid,
		"_orderby":        "file_name asc",
		"_limit":          []uint{uint(offset), uint(limit)},
	}
	rs := make([]*entryTab, 0, limit)
	if err := dbkit.SimpleQuery(ctx, q, p.entryTable(), where, &rs, dbkit.ScanWithTagName("json")); err != nil {
		return nil, err
	}
	return rs, nil
}

func (p *Provider) txListAllDir(ctx context.Context, q database.IQueryer, parentid uint64) ([]*entryTab, error) {
	var offset int64
	rs := make([]*entryTab, 0, listPageSize)
	for offset = 0; ; offset += listPageSize {
		ents, err := p.txListDir(ctx, q, parentid, offset, listPageSize)
		if err != nil {
			return nil, err
		}
		rs = append(rs, ents...)
		if int64(len(ents)) < listPageSize {
			break
		}
	}
	return rs, nil
}

func (p *Provider) txRemoveEntry(ctx context.Context, exec database.IExecer, entryid uint64) error {
	where := map[string]interface{}{
		"entry_id": entryid,
	}
	sql, args, err := builder.BuildDelete(p.entryTable(), where)
	if err != nil {
		return err
	}
	if _, err := exec.ExecContext(ctx, sql, args...); err != nil {
		return err
	}
	return nil
}

// txRemoveTree 先删子节点再删自身, 返回被删除的文件引用的content id
func (p *Provider) txRemoveTree(ctx context.Context, tx database.IQueryExecer, ent *entryTab, removed *[]uint64) error {
	if ent.IsDir() {
		items, err := p.txListAllDir(ctx, tx, ent.EntryId)
		if err != nil {
			return fmt.Errorf("list dir failed, eid:%d, err:%w", ent.EntryId, err)
		}
		for _, item := range items {
			if err := p.txRemoveTree(ctx, tx, item, removed); err != nil {
				return err
			}
		}
	} else if ent.ContentId != 0 {
		*removed = append(*removed, ent.ContentId)
	}
	return p.txRemoveEntry(ctx, tx, ent.EntryId)
}

// txCopyTree 文件直接共享content id, 目录按depth递归
func (p *Provider) txCopyTree(ctx context.Context, tx database.IQueryExecer, src *entryTab, dstParent uint64, dstName string, depth int) error {
	now := time.Now().UnixMilli()
	eid, err := p.txCreateEntry(ctx, tx, &entryTab{
		ParentEntryId: dstParent,
		FileKind:      src.FileKind,
		Ctime:         now,
		Mtime:         src.Mtime,
		FileSize:      src.FileSize,
		FileMode:      src.FileMode,
		FileName:      dstName,
		ContentId:     src.ContentId,
	})
	if err != nil {
		return err
	}
	if !src.IsDir() || depth <= 0 {
		return nil
	}
	items, err := p.txListAllDir(ctx, tx, src.EntryId)
	if err != nil {
		return fmt.Errorf("list dir failed, eid:%d, err:%w", src.EntryId, err)
	}
	for _, item := range items {
		if err := p.txCopyTree(ctx, tx, item, eid, item.FileName, depth-1); err != nil {
			return err
		}
	}
	return nil
}

func (p *Provider) txCreateContent(ctx context.Context, exec database.IExecer, data []byte) (uint64, error) {
	cid := p.c.idfn()
	rows := []map[string]interface{}{
		{
			"content_id": cid,
			"data":       data,
			"ctime":      time.Now().UnixMilli(),
		},
	}
	sql, args, err := builder.BuildInsert(p.contentTable(), rows)
	if err != nil {
		return 0, err
	}
	if _, err := exec.ExecContext(ctx, sql, args...); err != nil {
		return 0, err
	}
	return cid, nil
}

// txCleanContent 删除已经没有任何文件引用的内容
func (p *Provider) txCleanContent(ctx context.Context, exec database.IExecer) error {
	sql := fmt.Sprintf("DELETE FROM %s WHERE content_id NOT IN (SELECT content_id FROM %s)", p.contentTable(), p.entryTable())
	if _, err := exec.ExecContext(ctx, sql); err != nil {
		return fmt.Errorf("clean content failed, err:%w", err)
	}
	return nil
}

func (p *Provider) queryContents(ctx context.Context, q database.IQueryer, cids []uint64) ([]*contentTab, error) {
	in := make([]interface{}, 0, len(cids))
	for _, cid := range cids {
		in = append(in, cid)
	}
	where := map[string]interface{}{
		"content_id in": in,
	}
	rs := make([]*contentTab, 0, len(cids))
	if err := dbkit.SimpleQuery(ctx, q, p.contentTable(), where, &rs, dbkit.ScanWithTagName("json")); err != nil {
		return nil, err
	}
	return rs, nil
}
