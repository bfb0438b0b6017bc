package server

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/washly/order-api/internal/shared/actor"
	apierrors "github.com/washly/order-api/internal/shared/errors"
)

const (
	headerUserID   = "X-User-Id"
	headerUserRole = "X-User-Role"

	actorContextKey = "request.actor"
)

// RequireActor resolves the calling actor from the identity headers set by
// the API gateway. Requests without a resolvable actor are rejected before
// they reach a handler.
func RequireActor() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := strings.TrimSpace(c.GetHeader(headerUserID))
		if id == "" {
			apierrors.Respond(c, apierrors.ErrUnauthorized.WithDetail("missing "+headerUserID+" header"))
			c.Abort()
			return
		}
		role, err := actor.ParseRole(c.GetHeader(headerUserRole))
		if err != nil {
			apierrors.Respond(c, apierrors.ErrUnauthorized.WithDetail(err.Error()))
			c.Abort()
			return
		}
		c.Set(actorContextKey, actor.Actor{ID: id, Role: role})
		c.Next()
	}
}

func actorFrom(c *gin.Context) actor.Actor {
	value, ok := c.Get(actorContextKey)
	if !ok {
		return actor.Actor{}
	}
	act, _ := value.(actor.Actor)
	return act
}
