package terminal

import (
	"fmt"
	"sync"
	"time"

	"github.com/antibyte/retrobasic/pkg/configuration"
	"github.com/antibyte/retrobasic/pkg/logger"
)

// Konstanten für Client-Management
const (
	MaxClientsDefault       = 100 // Maximale Anzahl gleichzeitiger Clients
	MaxConnectionsPerMinute = 30  // pro IP
	rateLimitWindow         = time.Minute
)

// RateLimitInfo speichert Rate-Limiting-Informationen pro IP
type RateLimitInfo struct {
	requests  int
	lastReset time.Time
}

// ClientManager verwaltet Client-Verbindungen mit Session-IDs
type ClientManager struct {
	clients    map[string]*Client        // sessionID -> Client
	rateLimits map[string]*RateLimitInfo // ipAddress -> RateLimitInfo
	maxClients int
	mu         sync.RWMutex
}

// NewClientManager erstellt einen neuen ClientManager
func NewClientManager() *ClientManager {
	return &ClientManager{
		clients:    make(map[string]*Client),
		rateLimits: make(map[string]*RateLimitInfo),
		maxClients: configuration.GetInt("Network", "max_clients", MaxClientsDefault),
	}
}

// AddClient registers a client. It fails when the server is full.
func (cm *ClientManager) AddClient(client *Client) error {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	if cm.maxClients > 0 && len(cm.clients) >= cm.maxClients {
		return fmt.Errorf("client limit %d reached", cm.maxClients)
	}
	cm.clients[client.sessionID] = client
	logger.Info(logger.AreaSession, "client added for session %s (%d active)", client.sessionID, len(cm.clients))
	return nil
}

// RemoveClient entfernt einen Client
func (cm *ClientManager) RemoveClient(sessionID string) {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	if _, exists := cm.clients[sessionID]; exists {
		delete(cm.clients, sessionID)
		logger.Info(logger.AreaSession, "client removed for session %s", sessionID)
	}
}

// GetClientCount gibt die Anzahl der verbundenen Clients zurück
func (cm *ClientManager) GetClientCount() int {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	return len(cm.clients)
}

// HasClient prüft, ob ein Client für die Session existiert
func (cm *ClientManager) HasClient(sessionID string) bool {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	_, exists := cm.clients[sessionID]
	return exists
}

// CloseAll ends every session.
func (cm *ClientManager) CloseAll() {
	cm.mu.RLock()
	clients := make([]*Client, 0, len(cm.clients))
	for _, c := range cm.clients {
		clients = append(clients, c)
	}
	cm.mu.RUnlock()

	for _, c := range clients {
		c.close()
	}
}

// CheckRateLimit prüft das Rate-Limiting für eine IP-Adresse
func (cm *ClientManager) CheckRateLimit(ipAddress string) error {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	now := time.Now()
	rateLimit, exists := cm.rateLimits[ipAddress]
	if !exists || now.Sub(rateLimit.lastReset) > rateLimitWindow {
		rateLimit = &RateLimitInfo{lastReset: now}
		cm.rateLimits[ipAddress] = rateLimit
	}

	rateLimit.requests++
	if rateLimit.requests > MaxConnectionsPerMinute {
		logger.SecurityWarn("Rate limit exceeded for IP %s: %d connections in last minute", ipAddress, rateLimit.requests)
		return fmt.Errorf("rate limit exceeded: too many connections from %s", ipAddress)
	}

	// Alte Einträge aufräumen
	if len(cm.rateLimits) > 1024 {
		for ip, info := range cm.rateLimits {
			if now.Sub(info.lastReset) > rateLimitWindow {
				delete(cm.rateLimits, ip)
			}
		}
	}
	return nil
}

// CleanupInactiveSessions schließt Sessions ohne Eingabe seit maxInactiveTime
// and returns how many were closed.
func (cm *ClientManager) CleanupInactiveSessions(maxInactiveTime time.Duration) int {
	now := time.Now()
	var inactive []*Client

	cm.mu.RLock()
	for _, c := range cm.clients {
		if now.Sub(c.LastActivity()) > maxInactiveTime {
			inactive = append(inactive, c)
		}
	}
	cm.mu.RUnlock()

	for _, c := range inactive {
		logger.Info(logger.AreaSession, "closing inactive session %s", c.sessionID)
		c.close()
	}
	return len(inactive)
}
