package routing

import (
	"github.com/gin-gonic/gin"
)

// Mount registers every route on r. The table should be validated first;
// gin panics on conflicting paths.
func (t *Table) Mount(r gin.IRouter) {
	for _, route := range t.Routes() {
		for _, method := range route.Methods {
			r.Handle(method, route.Path, route.Handlers...)
		}
	}
}
