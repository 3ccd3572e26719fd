package deps

import (
	"time"

	"github.com/MrSnakeDoc/marque/internal/logger"
	"github.com/MrSnakeDoc/marque/internal/search"
	"github.com/MrSnakeDoc/marque/internal/store/file"
	redisstore "github.com/MrSnakeDoc/marque/internal/store/redis"
)

type Deps struct {
	Logger       logger.Logger
	StartTime    time.Time
	Version      string
	Commit       string
	BuildDate    string
	GoVersion    string
	TimeNow      func() time.Time    // for testing, defaults to time.Now
	Store        *file.Datastore     // bookmark collection
	History      *file.HistoryStore  // mutation log
	Engine       *search.Engine      // search evaluator
	PageCache    *redisstore.Store   // nil when redis is disabled
	PageSize     int                 // default listing page size
	TagSeparator string              // configured tag separator
	ExtraSchemes []string            // URL schemes allowed besides http/https
	ThumbTrigger chan struct{}       // manual thumbnail sweep trigger (nil if disabled)
}
