package ws

import (
	"context"
	"encoding/json"
	"fmt"
	"runtime/debug"
	"sync"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// NotificationSaver сохраняет событие сделки как уведомление в БД,
// чтобы оно дошло до пользователя и после офлайна.
type NotificationSaver interface {
	CreateNotification(ctx context.Context, userID uuid.UUID, event string, data interface{}) error
}

// Hub реестр активных WebSocket-подключений. События сделки рассылаются
// её участникам по мере смены статусов; у одного пользователя может
// быть несколько вкладок и, соответственно, несколько клиентов.
type Hub struct {
	mu         sync.RWMutex
	clients    map[uuid.UUID]map[*Client]struct{}
	register   chan *Client
	unregister chan *Client
	broadcast  chan envelope
	saver      NotificationSaver
	log        *logrus.Logger
	ctx        context.Context
}

// envelope готовое к отправке сообщение с адресатом.
type envelope struct {
	userID  uuid.UUID
	payload []byte
}

func NewHub(ctx context.Context, log *logrus.Logger) *Hub {
	return &Hub{
		clients:    make(map[uuid.UUID]map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan envelope, 32),
		log:        log,
		ctx:        ctx,
	}
}

// SetNotificationSaver подключает сохранение уведомлений. Вызывается
// один раз при сборке приложения, до запуска Run.
func (h *Hub) SetNotificationSaver(saver NotificationSaver) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.saver = saver
}

// Run главный цикл хаба. Регистрация, снятие и рассылка проходят через
// один цикл, так что порядок операций для клиента детерминирован.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.addClient(client)
		case client := <-h.unregister:
			h.removeClient(client)
		case msg := <-h.broadcast:
			h.deliver(msg)
		}
	}
}

func (h *Hub) Register(client *Client)   { h.register <- client }
func (h *Hub) Unregister(client *Client) { h.unregister <- client }

// BroadcastToUser отправляет событие пользователю и параллельно
// сохраняет его как уведомление. Формат кадра: {"type": ..., "data": ...}.
func (h *Hub) BroadcastToUser(userID uuid.UUID, event string, data any) error {
	raw, err := json.Marshal(map[string]any{
		"type": event,
		"data": data,
	})
	if err != nil {
		return fmt.Errorf("ws: не удалось сериализовать сообщение: %w", err)
	}

	h.mu.RLock()
	saver := h.saver
	ctx := h.ctx
	h.mu.RUnlock()

	if saver != nil {
		// Запись в БД не должна задерживать онлайн-доставку.
		go func() {
			defer func() {
				if r := recover(); r != nil {
					h.log.Errorf("ws: паника при сохранении уведомления: %v\n%s", r, debug.Stack())
				}
			}()
			if err := saver.CreateNotification(ctx, userID, event, data); err != nil {
				h.log.WithError(err).Warn("ws: не удалось сохранить уведомление")
			}
		}()
	}

	h.broadcast <- envelope{userID: userID, payload: raw}
	return nil
}

func (h *Hub) addClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	set, ok := h.clients[client.userID]
	if !ok {
		set = make(map[*Client]struct{})
		h.clients[client.userID] = set
	}
	set[client] = struct{}{}
}

func (h *Hub) removeClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	set, ok := h.clients[client.userID]
	if !ok {
		return
	}
	delete(set, client)
	if len(set) == 0 {
		delete(h.clients, client.userID)
	}
}

func (h *Hub) deliver(msg envelope) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for client := range h.clients[msg.userID] {
		select {
		case client.send <- msg.payload:
		default:
			// Переполненный буфер означает зависшего клиента.
			// Закрываем асинхронно, RLock держать нельзя.
			go func(c *Client) {
				defer func() {
					if r := recover(); r != nil {
						h.log.Errorf("ws: паника при закрытии клиента: %v\n%s", r, debug.Stack())
					}
				}()
				c.Close()
			}(client)
		}
	}
}
