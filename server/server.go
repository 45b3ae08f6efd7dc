package server

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/handlers"
	"github.com/xxxsen/davgate/davpath"
	"github.com/xxxsen/davgate/server/handler/webdav"
	"github.com/xxxsen/davgate/server/middleware"
)

func init() {
	gin.SetMode(gin.ReleaseMode)
}

type Server struct {
	c      *config
	bind   string
	engine *gin.Engine
}

func New(bind string, opts ...Option) (*Server, error) {
	c := applyOpts(opts...)
	if c.dispatcher == nil {
		return nil, fmt.Errorf("no dispatcher found")
	}
	c.prefix = "/" + strings.Trim(c.prefix, "/")
	if c.prefix == "/" {
		c.prefix = ""
	}
	svr := &Server{c: c, bind: bind, engine: gin.New()}
	svr.initAPI(svr.engine)
	return svr, nil
}

func (s *Server) middlewares() []gin.HandlerFunc {
	mws := []gin.HandlerFunc{
		gin.Recovery(),
		middleware.AccessLogMiddleware(),
		middleware.TryAuthMiddleware(s.c.userMap),
	}
	if len(s.c.userMap) > 0 {
		mws = append(mws, middleware.MustAuthMiddleware())
	}
	if s.c.authorizer != nil {
		mws = append(mws, middleware.AuthzMiddleware(s.c.authorizer, s.c.prefix))
	}
	mws = append(mws, middleware.NonLengthIOLimitMiddleware(s.c.maxChunkBody))
	return mws
}

func (s *Server) initAPI(engine *gin.Engine) {
	webdavHandler := webdav.NewWebdavHandler(s.c.dispatcher)
	webdavRouter := engine.Group(s.c.prefix, s.middlewares()...)
	for _, method := range s.c.dispatcher.Methods() {
		webdavRouter.Handle(method, "/*all", webdavHandler.Handler)
		if len(s.c.prefix) > 0 {
			// 不带末尾斜杠的前缀本身也需要能访问, 避免客户端被重定向
			webdavRouter.Handle(method, "", webdavHandler.Handler)
		}
	}
	// 未注册的方法同样交给分发层, 由其返回405
	noRoute := []gin.HandlerFunc{s.prefixGuard}
	noRoute = append(noRoute, s.middlewares()...)
	noRoute = append(noRoute, webdavHandler.Handler)
	engine.NoRoute(noRoute...)
}

// prefixGuard 前缀以外的请求保持gin默认的404
func (s *Server) prefixGuard(c *gin.Context) {
	if _, ok := davpath.StripPrefix(c.Request.URL.Path, s.c.prefix); !ok {
		c.Abort()
	}
}

// Handler 开启trust proxy时使用代理头中的host/scheme, 用于校验Destination
func (s *Server) Handler() http.Handler {
	if s.c.trustProxy {
		return handlers.ProxyHeaders(s.engine)
	}
	return s.engine
}

func (s *Server) Run() error {
	svr := &http.Server{
		Addr:    s.bind,
		Handler: s.Handler(),
	}
	return svr.ListenAndServe()
}
