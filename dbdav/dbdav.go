package dbdav

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/xxxsen/common/database"
	"github.com/xxxsen/common/logutil"
	"github.com/xxxsen/davgate/cacheapi"
	"github.com/xxxsen/davgate/daverr"
	"github.com/xxxsen/davgate/davpath"
	"github.com/xxxsen/davgate/resource"
	"github.com/xxxsen/davgate/utils"
	"go.uber.org/zap"
)

type txFunc func(ctx context.Context, tx database.IQueryExecer) error

// Provider 把数据库中的记录组织成资源树, 目录结构与文件内容分表存储
type Provider struct {
	db database.IDatabase
	c  *config
}

func New(db database.IDatabase, opts ...Option) (*Provider, error) {
	p := &Provider{db: db, c: applyOpts(opts...)}
	if err := p.onTransaction(context.Background(), func(ctx context.Context, tx database.IQueryExecer) error {
		_, err := p.txCreateRoot(ctx, tx)
		return err
	}); err != nil {
		return nil, fmt.Errorf("init root entry failed, err:%w", err)
	}
	return p, nil
}

// onTransaction 保留回调返回的原始错误, 避免错误类型在事务层丢失
func (p *Provider) onTransaction(ctx context.Context, fn txFunc) error {
	var inner error
	err := p.db.OnTransation(ctx, func(ctx context.Context, tx database.IQueryExecer) error {
		inner = fn(ctx, tx)
		return inner
	})
	if inner != nil {
		return wrapDBError(inner)
	}
	if err != nil {
		return wrapDBError(err)
	}
	return nil
}

// wrapDBError 数据库错误没有更合适的类型, 统一按Forbidden处理
func wrapDBError(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := daverr.KindOf(err); ok {
		return err
	}
	return daverr.Wrap(daverr.KindForbidden, err)
}

func (p *Provider) href(name string, isDir bool) string {
	return davpath.Href(p.c.hrefPrefix, name, isDir)
}

func (p *Provider) ResourceAt(ctx context.Context, name string) (resource.IResource, error) {
	name = davpath.Clean(name)
	ent, ok, err := p.txResolve(ctx, p.db, name)
	if err != nil {
		return nil, wrapDBError(err)
	}
	if !ok {
		return nil, nil
	}
	return p.newResource(name, ent), nil
}

func (p *Provider) CreateCollection(ctx context.Context, name string) error {
	name = davpath.Clean(name)
	return p.onTransaction(ctx, func(ctx context.Context, tx database.IQueryExecer) error {
		parent, base, err := p.txResolveParent(ctx, tx, name)
		if err != nil {
			return err
		}
		_, exist, err := p.txSearchEntry(ctx, tx, parent.EntryId, base)
		if err != nil {
			return err
		}
		if exist {
			return daverr.Errorf(daverr.KindConflict, "entry exist, path:%s", name)
		}
		now := time.Now().UnixMilli()
		_, err = p.txCreateEntry(ctx, tx, &entryTab{
			ParentEntryId: parent.EntryId,
			FileKind:      fileKindDir,
			Ctime:         now,
			Mtime:         now,
			FileMode:      defaultDirMode,
			FileName:      base,
		})
		return err
	})
}

func (p *Provider) WriteContent(ctx context.Context, name string, r io.Reader) error {
	name = davpath.Clean(name)
	data, err := io.ReadAll(r)
	if err != nil {
		return daverr.Wrap(daverr.KindConflict, fmt.Errorf("read body failed, err:%w", err))
	}
	var replaced []uint64
	err = p.onTransaction(ctx, func(ctx context.Context, tx database.IQueryExecer) error {
		parent, base, err := p.txResolveParent(ctx, tx, name)
		if err != nil {
			// 写入时父目录异常统一按Conflict处理
			return daverr.Wrap(daverr.KindConflict, err)
		}
		ent, exist, err := p.txSearchEntry(ctx, tx, parent.EntryId, base)
		if err != nil {
			return err
		}
		if exist && ent.IsDir() {
			return daverr.Errorf(daverr.KindConflict, "cant write to collection, path:%s", name)
		}
		var cid uint64
		if len(data) > 0 {
			if cid, err = p.txCreateContent(ctx, tx, data); err != nil {
				return err
			}
		}
		now := time.Now().UnixMilli()
		if !exist {
			_, err := p.txCreateEntry(ctx, tx, &entryTab{
				ParentEntryId: parent.EntryId,
				FileKind:      fileKindFile,
				Ctime:         now,
				Mtime:         now,
				FileSize:      int64(len(data)),
				FileMode:      defaultFileMode,
				FileName:      base,
				ContentId:     cid,
			})
			return err
		}
		if err := p.txUpdateEntry(ctx, tx, ent.EntryId, map[string]interface{}{
			"content_id": cid,
			"file_size":  int64(len(data)),
			"mtime":      now,
		}); err != nil {
			return err
		}
		if ent.ContentId != 0 {
			replaced = append(replaced, ent.ContentId)
		}
		return p.txCleanContent(ctx, tx)
	})
	if err != nil {
		return err
	}
	p.evictContents(ctx, replaced)
	return nil
}

func (p *Provider) Delete(ctx context.Context, res resource.IResource) error {
	name := davpath.Clean(res.Path())
	if name == "/" {
		return daverr.Errorf(daverr.KindForbidden, "cant delete root")
	}
	var removed []uint64
	err := p.onTransaction(ctx, func(ctx context.Context, tx database.IQueryExecer) error {
		ent, ok, err := p.txResolve(ctx, tx, name)
		if err != nil {
			return err
		}
		if !ok {
			return daverr.Errorf(daverr.KindNotFound, "entry not found, path:%s", name)
		}
		if err := p.txRemoveTree(ctx, tx, ent, &removed); err != nil {
			return err
		}
		return p.txCleanContent(ctx, tx)
	})
	if err != nil {
		return err
	}
	p.evictContents(ctx, removed)
	return nil
}

// txPrepareTransfer 读取源记录和目标父目录, 并删除已存在的目标
func (p *Provider) txPrepareTransfer(ctx context.Context, tx database.IQueryExecer, src string, dst string, removed *[]uint64) (*entryTab, *entryTab, string, error) {
	sent, ok, err := p.txResolve(ctx, tx, src)
	if err != nil {
		return nil, nil, "", err
	}
	if !ok {
		return nil, nil, "", daverr.Errorf(daverr.KindNotFound, "src not found, path:%s", src)
	}
	parent, base, err := p.txResolveParent(ctx, tx, dst)
	if err != nil {
		return nil, nil, "", err
	}
	dent, exist, err := p.txSearchEntry(ctx, tx, parent.EntryId, base)
	if err != nil {
		return nil, nil, "", err
	}
	if exist {
		if err := p.txRemoveTree(ctx, tx, dent, removed); err != nil {
			return nil, nil, "", fmt.Errorf("remove dst before transfer failed, err:%w", err)
		}
	}
	return sent, parent, base, nil
}

func (p *Provider) Copy(ctx context.Context, src resource.IResource, dst string, depth int) error {
	srcName, dstName := davpath.Clean(src.Path()), davpath.Clean(dst)
	var removed []uint64
	err := p.onTransaction(ctx, func(ctx context.Context, tx database.IQueryExecer) error {
		sent, parent, base, err := p.txPrepareTransfer(ctx, tx, srcName, dstName, &removed)
		if err != nil {
			return err
		}
		if err := p.txCopyTree(ctx, tx, sent, parent.EntryId, base, depth); err != nil {
			return fmt.Errorf("copy tree failed, src:%s, dst:%s, err:%w", srcName, dstName, err)
		}
		return p.txCleanContent(ctx, tx)
	})
	if err != nil {
		return err
	}
	p.evictContents(ctx, removed)
	return nil
}

// Move 只修改父节点和名字, 子树整体跟随
func (p *Provider) Move(ctx context.Context, src resource.IResource, dst string, depth int) error {
	srcName, dstName := davpath.Clean(src.Path()), davpath.Clean(dst)
	if srcName == "/" {
		return daverr.Errorf(daverr.KindForbidden, "cant move root")
	}
	var removed []uint64
	err := p.onTransaction(ctx, func(ctx context.Context, tx database.IQueryExecer) error {
		sent, parent, base, err := p.txPrepareTransfer(ctx, tx, srcName, dstName, &removed)
		if err != nil {
			return err
		}
		if err := p.txChangeParent(ctx, tx, sent.EntryId, parent.EntryId, base); err != nil {
			return fmt.Errorf("change parent failed, src:%s, dst:%s, err:%w", srcName, dstName, err)
		}
		return p.txCleanContent(ctx, tx)
	})
	if err != nil {
		return err
	}
	p.evictContents(ctx, removed)
	return nil
}

func (p *Provider) evictContents(ctx context.Context, cids []uint64) {
	for _, cid := range cids {
		if err := p.c.cache.Del(ctx, utils.EncodeID(cid)); err != nil {
			logutil.GetLogger(ctx).Error("evict content cache failed", zap.Uint64("content_id", cid), zap.Error(err))
		}
	}
}

// loadContent 内容写入后不再修改, 可以安全地缓存
func (p *Provider) loadContent(ctx context.Context, cid uint64) ([]byte, error) {
	if cid == 0 {
		return nil, nil
	}
	data, ok, err := cacheapi.Load(ctx, p.c.cache, utils.EncodeID(cid), p.loadContentsFromDB)
	if err != nil {
		return nil, daverr.Wrap(daverr.KindForbidden, err)
	}
	if !ok {
		return nil, daverr.Errorf(daverr.KindNotFound, "content not found, cid:%d", cid)
	}
	return data, nil
}

func (p *Provider) loadContentsFromDB(ctx context.Context, miss []string) (map[string][]byte, error) {
	cids := make([]uint64, 0, len(miss))
	for _, xid := range miss {
		cid, err := utils.DecodeID(xid)
		if err != nil {
			return nil, fmt.Errorf("decode content id failed, xid:%s, err:%w", xid, err)
		}
		cids = append(cids, cid)
	}
	rs, err := p.queryContents(ctx, p.db, cids)
	if err != nil {
		return nil, err
	}
	m := make(map[string][]byte, len(rs))
	for _, item := range rs {
		m[utils.EncodeID(item.ContentId)] = item.Data
	}
	return m, nil
}
