package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/emedica/emedica-api/internal/domain"
	"github.com/emedica/emedica-api/pkg/metrics"
)

// RequireRoles gates a route group to an explicit role set. An unrecognized
// role is treated like an unauthenticated request rather than being mapped
// to any default.
func RequireRoles(collector *metrics.Collector, log *zap.Logger, roles ...domain.Role) gin.HandlerFunc {
	allowed := make(map[domain.Role]struct{}, len(roles))
	for _, r := range roles {
		allowed[r] = struct{}{}
	}

	return func(c *gin.Context) {
		sess, ok := CurrentSession(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
			return
		}

		if !sess.Role.IsValid() {
			log.Warn("session carries unrecognized role",
				zap.String("role", string(sess.Role)),
				zap.String("session_id", sess.ID),
			)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
			return
		}

		if _, ok := allowed[sess.Role]; !ok {
			collector.RouteDeniedTotal.WithLabelValues(string(sess.Role), c.FullPath()).Inc()
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "access denied"})
			return
		}

		c.Next()
	}
}
