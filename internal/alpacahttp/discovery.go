package alpacahttp

import (
	"encoding/json"
	"net"

	"go.uber.org/zap"
)

const (
	discoveryPort    = 32227
	discoveryMessage = "alpacadiscovery1"
)

// discoveryResponse is the JSON body broadcast back to a discovery
// probe, grounded on the ascomserver reference's DiscoveryResponse.
type discoveryResponse struct {
	AlpacaPort int `json:"AlpacaPort"`
}

// RunDiscoveryResponder listens for "alpacadiscovery1" UDP broadcasts
// on port 32227 and replies with the HTTP API's port, per spec.md §6.
// It blocks until stop is closed or the socket errors.
func RunDiscoveryResponder(apiPort int, stop <-chan struct{}, log *zap.Logger) error {
	if log == nil {
		log = zap.NewNop()
	}
	addr := net.UDPAddr{Port: discoveryPort, IP: net.IPv4zero}
	conn, err := net.ListenUDP("udp", &addr)
	if err != nil {
		return err
	}
	defer conn.Close()

	go func() {
		<-stop
		conn.Close()
	}()

	body, err := json.Marshal(discoveryResponse{AlpacaPort: apiPort})
	if err != nil {
		return err
	}

	buf := make([]byte, 64)
	for {
		n, peer, err := conn.ReadFromUDP(buf)
		if err != nil {
			select {
			case <-stop:
				return nil
			default:
				return err
			}
		}
		if string(buf[:n]) != discoveryMessage {
			continue
		}
		if _, err := conn.WriteToUDP(body, peer); err != nil {
			log.Warn("discovery reply failed", zap.Stringer("peer", peer), zap.Error(err))
		}
	}
}
