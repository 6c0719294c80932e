package api

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/annel0/adventure-world/internal/cache"
	"github.com/annel0/adventure-world/internal/config"
	"github.com/annel0/adventure-world/internal/eventbus"
	"github.com/annel0/adventure-world/internal/logging"
	"github.com/annel0/adventure-world/internal/middleware"
	"github.com/annel0/adventure-world/internal/storage"
	"github.com/annel0/adventure-world/internal/terrain"
	"github.com/annel0/adventure-world/internal/vec"
	"github.com/annel0/adventure-world/internal/world"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

// RestServer: HTTP-инспектор одного мира
type RestServer struct {
	router     *gin.Engine
	httpServer *http.Server
	port       string
	metrics    *ServerMetrics
	adminToken string
	bus        eventbus.EventBus
	webhooks   *WebhookForwarder
	cache      cache.ArtifactCache
	journal    *storage.Journal
	log        *logging.Logger

	// менеджер мира не потокобезопасен: все обращения под mu
	mu    sync.Mutex
	world *world.Manager
}

// Config содержит конфигурацию для REST сервера
type Config struct {
	Port       string               // адрес для запуска сервера
	World      *world.Manager       // обслуживаемый мир
	AdminToken string               // токен для мутирующих запросов, пусто: без проверки
	EventBus   eventbus.EventBus    // для статистики шины в /health, может быть nil
	Webhooks   *WebhookForwarder    // для статистики доставки, может быть nil
	Cache      cache.ArtifactCache  // nil: кеш в памяти
	Journal    *storage.Journal     // журнал событий, может быть nil
	Registry   *prometheus.Registry // nil: отдельный реестр
	Logger     *logging.Logger
}

// GenericResponse представляет общий ответ API
type GenericResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// NewRestServer создает новый REST API сервер
func NewRestServer(cfg Config) *RestServer {
	if cfg.Port == "" {
		cfg.Port = ":8088"
	}
	if cfg.Registry == nil {
		cfg.Registry = prometheus.NewRegistry()
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.GetAPILogger()
	}
	if cfg.Cache == nil {
		cfg.Cache = cache.NewMemoryCache(0, 0)
	}

	router := gin.New()        // без стандартного logger/recovery
	router.Use(gin.Recovery()) // добавим только recovery

	// === Observability middleware ===
	router.Use(middleware.NewRequestLogger(cfg.Logger).Handler())
	router.Use(otelgin.Middleware("world_inspector"))

	promMw := middleware.NewPrometheusMiddleware("world_inspector", cfg.Registry)
	router.Use(promMw.Handler())
	promMw.RegisterMetricsEndpoint(router, cfg.Registry)

	rs := &RestServer{
		router:     router,
		port:       cfg.Port,
		metrics:    NewServerMetrics(),
		adminToken: cfg.AdminToken,
		bus:        cfg.EventBus,
		webhooks:   cfg.Webhooks,
		cache:      cfg.Cache,
		journal:    cfg.Journal,
		log:        cfg.Logger,
		world:      cfg.World,
	}
	rs.setupRoutes()
	return rs
}

// setupRoutes настраивает маршруты инспектора
func (rs *RestServer) setupRoutes() {
	rs.router.Use(corsMiddleware())

	rs.router.GET("/health", rs.handleHealth)

	api := rs.router.Group("/api/world")
	{
		api.GET("", rs.handleWorldInfo)
		api.GET("/objects", rs.handleObjects)
		api.GET("/interactables", rs.handleInteractables)
		api.GET("/heightmap", rs.handleHeightmap)
		api.GET("/texture.png", rs.handleTexture)
		api.GET("/webhooks", rs.handleWebhookStats)
		api.GET("/events", rs.handleEvents)
	}

	admin := api.Group("")
	admin.Use(rs.adminMiddleware())
	{
		admin.POST("/player", rs.handlePlayer)
		admin.POST("/expand", rs.handleExpand)
		admin.POST("/regenerate", rs.handleRegenerate)
		admin.DELETE("/interactables/:id", rs.handleInteract)
	}
}

// Handler возвращает http.Handler сервера (для тестов и встраивания)
func (rs *RestServer) Handler() http.Handler {
	return rs.router
}

// Start запускает REST сервер; блокируется до Stop
func (rs *RestServer) Start() error {
	rs.httpServer = &http.Server{
		Addr:              rs.port,
		Handler:           rs.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	rs.log.Info("🌐 Инспектор мира слушает %s", rs.port)

	if err := rs.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Stop корректно останавливает сервер
func (rs *RestServer) Stop(ctx context.Context) error {
	if rs.httpServer == nil {
		return nil
	}
	return rs.httpServer.Shutdown(ctx)
}

// worldView: снимок мира с позицией игрока
type worldView struct {
	world.Info
	Player    vec.Vec3Float `json:"player"`
	Pending   bool          `json:"expansion_pending"`
	LastError string        `json:"last_error,omitempty"`
}

func (rs *RestServer) viewLocked() worldView {
	v := worldView{
		Info:    rs.world.WorldInfo(),
		Player:  rs.world.PlayerPosition(),
		Pending: rs.world.ExpansionPending(),
	}
	if err := rs.world.LastError(); err != nil {
		v.LastError = err.Error()
	}
	return v
}

// handleHealth проверка состояния сервера
func (rs *RestServer) handleHealth(c *gin.Context) {
	memoryMB, _ := rs.metrics.GetMemoryUsage()
	cpuPercent, err := rs.metrics.GetCPUUsage()
	if err != nil {
		rs.log.Debug("CPU метрика недоступна: %v", err)
	}

	rs.mu.Lock()
	state := rs.world.State()
	rs.mu.Unlock()

	data := gin.H{
		"status":      "ok",
		"time":        time.Now().Unix(),
		"uptime":      rs.metrics.GetUptime(),
		"memory_mb":   memoryMB,
		"cpu_percent": cpuPercent,
		"memory":      rs.metrics.GetDetailedMemoryStats(),
		"world_state": state,
	}
	if rs.bus != nil {
		data["eventbus"] = rs.bus.Metrics()
	}
	data["cache"] = rs.cache.Stats()
	c.JSON(http.StatusOK, data)
}

// handleWorldInfo возвращает снимок мира
func (rs *RestServer) handleWorldInfo(c *gin.Context) {
	rs.mu.Lock()
	view := rs.viewLocked()
	rs.mu.Unlock()

	c.JSON(http.StatusOK, GenericResponse{
		Success: true,
		Message: "Состояние мира",
		Data:    view,
	})
}

// handleObjects возвращает размещённые объекты, ?category= фильтрует по категории
func (rs *RestServer) handleObjects(c *gin.Context) {
	category := c.Query("category")

	rs.mu.Lock()
	all := rs.world.Objects()
	rs.mu.Unlock()

	objects := make([]world.PlacedObject, 0, len(all))
	for _, obj := range all {
		if category == "" || obj.Category.String() == category {
			objects = append(objects, obj)
		}
	}

	c.JSON(http.StatusOK, GenericResponse{
		Success: true,
		Message: "Объекты мира",
		Data: gin.H{
			"objects": objects,
			"total":   len(objects),
		},
	})
}

// handleInteractables возвращает реестр интерактивных объектов.
// ?x=&y=&z= возвращает ближайший в радиусе ?range= (по умолчанию DefaultInteractRange).
func (rs *RestServer) handleInteractables(c *gin.Context) {
	if c.Query("x") != "" {
		rs.handleNearest(c)
		return
	}

	rs.mu.Lock()
	reg := rs.world.Interactables()
	items := reg.List()
	counts := reg.CountByKind()
	rs.mu.Unlock()

	byKind := make(map[string]int, len(counts))
	for k, n := range counts {
		byKind[k.String()] = n
	}

	c.JSON(http.StatusOK, GenericResponse{
		Success: true,
		Message: "Интерактивные объекты",
		Data: gin.H{
			"interactables": items,
			"by_kind":       byKind,
			"total":         len(items),
		},
	})
}

func (rs *RestServer) handleNearest(c *gin.Context) {
	var pos [3]float64
	for i, key := range []string{"x", "y", "z"} {
		v, err := strconv.ParseFloat(c.DefaultQuery(key, "0"), 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, GenericResponse{
				Success: false,
				Message: fmt.Sprintf("Неверная координата %s", key),
			})
			return
		}
		pos[i] = v
	}
	maxRange, err := strconv.ParseFloat(c.DefaultQuery("range", strconv.FormatFloat(world.DefaultInteractRange, 'f', -1, 64)), 64)
	if err != nil || maxRange < 0 {
		c.JSON(http.StatusBadRequest, GenericResponse{
			Success: false,
			Message: "Неверный радиус",
		})
		return
	}

	rs.mu.Lock()
	it, ok := rs.world.NearestInteractable(vec.Vec3Float{X: pos[0], Y: pos[1], Z: pos[2]}, maxRange)
	rs.mu.Unlock()

	if !ok {
		c.JSON(http.StatusNotFound, GenericResponse{
			Success: false,
			Message: "Рядом нет интерактивных объектов",
		})
		return
	}
	c.JSON(http.StatusOK, GenericResponse{
		Success: true,
		Message: "Ближайший интерактивный объект",
		Data:    it,
	})
}

// handleInteract выполняет взаимодействие с объектом реестра
func (rs *RestServer) handleInteract(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, GenericResponse{
			Success: false,
			Message: "Неверный ID объекта",
		})
		return
	}

	rs.mu.Lock()
	result, err := rs.world.Interact(id)
	rs.mu.Unlock()

	if errors.Is(err, world.ErrInteractableNotFound) {
		c.JSON(http.StatusNotFound, GenericResponse{
			Success: false,
			Message: "Объект не найден",
		})
		return
	}
	if err != nil {
		rs.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, GenericResponse{
		Success: true,
		Message: result.Interactable.Message,
		Data:    result,
	})
}

// handlePlayer обновляет позицию игрока; может запустить расширение
func (rs *RestServer) handlePlayer(c *gin.Context) {
	var pos vec.Vec3Float
	if err := c.ShouldBindJSON(&pos); err != nil {
		c.JSON(http.StatusBadRequest, GenericResponse{
			Success: false,
			Message: "Неверный формат запроса: " + err.Error(),
		})
		return
	}

	rs.mu.Lock()
	rs.world.UpdatePlayerPosition(pos)
	view := rs.viewLocked()
	nearest, found := rs.world.NearestInteractable(pos, world.DefaultInteractRange)
	rs.mu.Unlock()

	data := gin.H{"world": view}
	if found {
		data["nearest_interactable"] = nearest
	}
	c.JSON(http.StatusOK, GenericResponse{
		Success: true,
		Message: "Позиция игрока обновлена",
		Data:    data,
	})
}

// handleExpand принудительно расширяет карту на один шаг
func (rs *RestServer) handleExpand(c *gin.Context) {
	rs.mu.Lock()
	expanded, err := rs.world.ExpandMap(c.Request.Context())
	view := rs.viewLocked()
	rs.mu.Unlock()

	if err != nil {
		rs.respondError(c, err)
		return
	}

	message := "Карта расширена"
	if !expanded {
		message = "Расширение недоступно"
	}
	c.JSON(http.StatusOK, GenericResponse{
		Success: true,
		Message: message,
		Data: gin.H{
			"expanded": expanded,
			"world":    view,
		},
	})
}

// handleRegenerate пересоздаёт мир с частично изменённой конфигурацией
func (rs *RestServer) handleRegenerate(c *gin.Context) {
	var patch config.WorldPatch
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&patch); err != nil {
			c.JSON(http.StatusBadRequest, GenericResponse{
				Success: false,
				Message: "Неверный формат запроса: " + err.Error(),
			})
			return
		}
	}

	rs.mu.Lock()
	err := rs.world.RegenerateWorld(c.Request.Context(), patch)
	view := rs.viewLocked()
	rs.mu.Unlock()

	if err != nil {
		rs.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, GenericResponse{
		Success: true,
		Message: "Мир перегенерирован",
		Data:    view,
	})
}

// handleHeightmap отдаёт сжатую карту высот текущей поверхности (?encoding=gzip|zstd)
func (rs *RestServer) handleHeightmap(c *gin.Context) {
	enc, err := terrain.ParseEncoding(c.Query("encoding"))
	if err != nil {
		c.JSON(http.StatusBadRequest, GenericResponse{Success: false, Message: err.Error()})
		return
	}

	data, side, ok := rs.artifact(c, "heightmap."+string(enc), func(buf *bytes.Buffer, s *terrain.Surface) error {
		return terrain.WriteHeightmapEncoded(buf, s, enc)
	})
	if !ok {
		return
	}

	filename, contentType := "heightmap.bin.gz", "application/gzip"
	if enc == terrain.EncodingZstd {
		filename, contentType = "heightmap.bin.zst", "application/zstd"
	}
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Header("X-Heightmap-Side", strconv.Itoa(side))
	c.Data(http.StatusOK, contentType, data)
}

// handleTexture отдаёт текстуру поверхности в PNG
func (rs *RestServer) handleTexture(c *gin.Context) {
	data, _, ok := rs.artifact(c, "texture.png", func(buf *bytes.Buffer, s *terrain.Surface) error {
		return terrain.WriteTexturePNG(buf, s.Texture)
	})
	if !ok {
		return
	}
	c.Data(http.StatusOK, "image/png", data)
}

// artifact возвращает закодированный артефакт поверхности из кеша или кодирует его.
// Поверхность неизменяема, поэтому кодирование идёт вне блокировки мира.
func (rs *RestServer) artifact(c *gin.Context, kind string, render func(*bytes.Buffer, *terrain.Surface) error) ([]byte, int, bool) {
	rs.mu.Lock()
	surface := rs.world.Surface()
	fingerprint := rs.world.Fingerprint()
	rs.mu.Unlock()

	if surface == nil {
		rs.respondError(c, world.ErrNotGenerated)
		return nil, 0, false
	}
	side := surface.Mesh.Subdivisions + 1
	key := fingerprint + ":" + kind
	ctx := c.Request.Context()

	if data, err := rs.cache.Get(ctx, key); err == nil {
		c.Header(middleware.CacheHeader, "HIT")
		return data, side, true
	} else if !errors.Is(err, cache.ErrCacheMiss) {
		rs.log.Warn("Кеш артефактов недоступен: %v", err)
	}

	var buf bytes.Buffer
	if err := render(&buf, surface); err != nil {
		rs.respondError(c, err)
		return nil, 0, false
	}
	if err := rs.cache.Set(ctx, key, buf.Bytes(), 0); err != nil {
		rs.log.Warn("Не удалось сохранить %s в кеш: %v", kind, err)
	}
	c.Header(middleware.CacheHeader, "MISS")
	return buf.Bytes(), side, true
}

// handleWebhookStats возвращает статистику исходящих webhook'ов
func (rs *RestServer) handleWebhookStats(c *gin.Context) {
	stats := []WebhookStats{}
	if rs.webhooks != nil {
		stats = rs.webhooks.Stats()
	}
	c.JSON(http.StatusOK, GenericResponse{
		Success: true,
		Message: "Исходящие webhook'и",
		Data: gin.H{
			"webhooks": stats,
			"total":    len(stats),
		},
	})
}

// handleEvents возвращает последние события мира из журнала.
// ?limit= (по умолчанию 50), ?type= можно повторять.
func (rs *RestServer) handleEvents(c *gin.Context) {
	if rs.journal == nil {
		c.JSON(http.StatusServiceUnavailable, GenericResponse{
			Success: false,
			Message: "Журнал событий выключен",
		})
		return
	}

	limit, err := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if err != nil || limit < 1 || limit > 1000 {
		c.JSON(http.StatusBadRequest, GenericResponse{
			Success: false,
			Message: "Неверный limit (1..1000)",
		})
		return
	}

	events, err := rs.journal.Recent(limit, c.QueryArray("type")...)
	if err != nil {
		rs.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, GenericResponse{
		Success: true,
		Message: "События мира",
		Data: gin.H{
			"events": events,
			"total":  len(events),
		},
	})
}

// respondError переводит ошибки мира в HTTP-статусы
func (rs *RestServer) respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, config.ErrInvalidConfig):
		status = http.StatusBadRequest
	case errors.Is(err, world.ErrNotGenerated),
		errors.Is(err, world.ErrAlreadyGenerated),
		errors.Is(err, world.ErrDisposed):
		status = http.StatusConflict
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		status = http.StatusServiceUnavailable
	}
	if status == http.StatusInternalServerError {
		rs.log.Error("Ошибка обработки %s %s: %v", c.Request.Method, c.FullPath(), err)
	}

	c.JSON(status, GenericResponse{
		Success: false,
		Message: err.Error(),
	})
}
