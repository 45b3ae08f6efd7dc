package resource

import (
	"context"
	"fmt"
)

// Walk 深度优先前序遍历, depth按层递减而不是按节点递减
// 多状态响应需要在输出前拿到完整的资源列表, 所以这里直接返回切片
func Walk(ctx context.Context, root IResource, depth int) ([]IResource, error) {
	rs := make([]IResource, 0, 16)
	if err := walk(ctx, root, depth, &rs); err != nil {
		return nil, err
	}
	return rs, nil
}

func walk(ctx context.Context, res IResource, depth int, rs *[]IResource) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	*rs = append(*rs, res)
	if depth <= 0 || !res.IsCollection() {
		return nil
	}
	children, err := res.Children(ctx)
	if err != nil {
		return fmt.Errorf("list children failed, path:%s, err:%w", res.Path(), err)
	}
	for _, child := range children {
		if child == nil {
			continue
		}
		if err := walk(ctx, child, depth-1, rs); err != nil {
			return err
		}
	}
	return nil
}
