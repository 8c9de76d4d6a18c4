package api

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/Django-Rwanda/django-rwanda-portal/infrastructure/health"
	"github.com/Django-Rwanda/django-rwanda-portal/internal/routing"
)

// urlTable declares the whole URL tree.
func (s *Server) urlTable() *routing.Table {
	root := &routing.Table{}

	if s.cfg.Admin.Enabled() {
		root.Entries = append(root.Entries, routing.Include("admin/", s.adminTable()))
	}

	info := gin.H{"service": s.cfg.ServiceName, "environment": string(s.cfg.Environment)}
	root.Entries = append(root.Entries,
		routing.Include("api/", &routing.Table{
			Namespace: "api",
			Entries: []routing.Entry{
				routing.Include("v1/", s.v1Table()),
			},
		}),
		routing.Path("health", s.portal.Health.GinHandler(info), "health"),
		routing.Path("health/live", health.GinLivenessHandler(), "health_live"),
		routing.Path("health/ready", s.portal.Health.GinHandler(info), "health_ready"),
		routing.Path("metrics", gin.WrapH(s.portal.Telemetry.Handler()), "metrics"),
	)

	if s.cfg.Debug {
		root.Entries = append(root.Entries,
			staticEntry(s.cfg.Static.URL, s.cfg.Static.Root, "static"),
			staticEntry(s.cfg.Static.MediaURL, s.cfg.Static.MediaRoot, "media"),
		)
	}

	return root
}

// v1Table holds the version 1 API and every installed app's URLs.
func (s *Server) v1Table() *routing.Table {
	v1 := &routing.Table{
		Namespace: "v1",
		Entries: []routing.Entry{
			routing.Path("", index, "index"),
			routing.Path("add", add, "add"),
		},
	}

	for _, app := range s.portal.Apps {
		if t := app.Routes(); t != nil {
			v1.Entries = append(v1.Entries, routing.Include(app.Name()+"/", t))
		}
	}
	return v1
}

// staticEntry serves files under root at urlPrefix.
func staticEntry(urlPrefix, root, name string) routing.Entry {
	prefix := strings.Trim(urlPrefix, "/")
	fs := gin.Dir(root, false)

	return routing.Path(prefix+"/*filepath", func(c *gin.Context) {
		c.FileFromFS(c.Param("filepath"), fs)
	}, name, http.MethodGet, http.MethodHead)
}
