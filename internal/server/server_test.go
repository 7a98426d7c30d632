package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/palemoky/word-impostor/internal/config"
	"github.com/palemoky/word-impostor/internal/game/word"
	"github.com/palemoky/word-impostor/internal/protocol"
	"github.com/palemoky/word-impostor/internal/protocol/codec"
)

const readTimeout = 3 * time.Second

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.Game.ShutdownCheckInterval = 1
	cfg.Game.RoomCleanupDelay = 0
	cfg.Security.AllowedOrigins = []string{"*"}
	return cfg
}

// wsClient 测试用的 WebSocket 客户端
type wsClient struct {
	t     *testing.T
	conn  *websocket.Conn
	codec codec.Codec
	id    string
}

func dial(t *testing.T, baseURL, codecName string) *wsClient {
	t.Helper()
	url := "ws" + strings.TrimPrefix(baseURL, "http") + "/ws"
	if codecName != "" {
		url += "?codec=" + codecName
	}
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	t.Cleanup(func() { _ = conn.Close() })

	c := &wsClient{t: t, conn: conn, codec: codec.ByName(codecName)}
	connected := c.expect(protocol.MsgConnected, "")
	payload, err := codec.ParsePayload[protocol.ConnectedPayload](connected)
	require.NoError(t, err)
	require.NotEmpty(t, payload.PlayerID)
	c.id = payload.PlayerID
	return c
}

func (c *wsClient) send(msgType protocol.MessageType, id string, payload any) {
	c.t.Helper()
	msg := codec.MustNewMessage(msgType, payload)
	msg.ID = id
	data, err := c.codec.Encode(msg)
	require.NoError(c.t, err)

	frame := websocket.TextMessage
	if c.codec.Binary() {
		frame = websocket.BinaryMessage
	}
	require.NoError(c.t, c.conn.WriteMessage(frame, data))
}

// expect 读取直到收到指定类型（以及 ID，非空时）的消息
func (c *wsClient) expect(msgType protocol.MessageType, id string) *protocol.Message {
	c.t.Helper()
	require.NoError(c.t, c.conn.SetReadDeadline(time.Now().Add(readTimeout)))
	for {
		_, data, err := c.conn.ReadMessage()
		require.NoError(c.t, err, "waiting for %s", msgType)
		msg, err := c.codec.Decode(data)
		require.NoError(c.t, err)
		if msg.Type == msgType && (id == "" || msg.ID == id) {
			return msg
		}
	}
}

func (c *wsClient) request(msgType protocol.MessageType, id string, payload any) protocol.AckPayload {
	c.t.Helper()
	c.send(msgType, id, payload)
	ack, err := codec.ParsePayload[protocol.AckPayload](c.expect(protocol.MsgAck, id))
	require.NoError(c.t, err)
	return *ack
}

type ServerTestSuite struct {
	suite.Suite
	mr     *miniredis.Miniredis
	rdb    *redis.Client
	server *Server
	http   *httptest.Server
}

func TestServerSuite(t *testing.T) {
	suite.Run(t, new(ServerTestSuite))
}

func (s *ServerTestSuite) SetupTest() {
	s.mr = miniredis.RunT(s.T())
	s.rdb = redis.NewClient(&redis.Options{Addr: s.mr.Addr()})

	catalog, err := word.NewList([]string{"pizza"})
	s.Require().NoError(err)

	s.server = newServer(testConfig(), s.rdb, catalog)
	s.http = httptest.NewServer(s.server.Router())
}

func (s *ServerTestSuite) TearDownTest() {
	s.http.Close()
	s.server.close()
}

func (s *ServerTestSuite) get(path string) (int, []byte) {
	resp, err := http.Get(s.http.URL + path)
	s.Require().NoError(err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	s.Require().NoError(err)
	return resp.StatusCode, body
}

func (s *ServerTestSuite) TestHealth() {
	status, body := s.get("/health")
	s.Equal(http.StatusOK, status)
	s.Equal("OK", string(body))
}

func (s *ServerTestSuite) TestFullRound() {
	t := s.T()
	p1 := dial(t, s.http.URL, "")
	p2 := dial(t, s.http.URL, "json")
	p3 := dial(t, s.http.URL, "protobuf")
	players := []*wsClient{p1, p2, p3}

	created := p1.request(protocol.MsgCreateRoom, "c1", protocol.CreateRoomPayload{Name: "P1"})
	s.Require().True(created.OK, created.Error)
	code := created.Room.ID

	for i, p := range players[1:] {
		ack := p.request(protocol.MsgJoinRoom, "j1", protocol.JoinRoomPayload{
			RoomCode: strings.ToLower(code),
			Name:     []string{"P2", "P3"}[i],
		})
		s.Require().True(ack.OK, ack.Error)
	}
	s.Equal(1, s.server.membership.RoomCount())

	s.Require().True(p1.request(protocol.MsgStartGame, "s1", nil).OK)

	// 每人收到私有身份，找出卧底
	var impostor *wsClient
	var others []*wsClient
	for _, p := range players {
		role, err := codec.ParsePayload[protocol.RolePayload](p.expect(protocol.MsgRole, ""))
		s.Require().NoError(err)
		if role.IsImpostor {
			s.Nil(role.Word)
			impostor = p
		} else {
			s.Require().NotNil(role.Word)
			s.Equal("pizza", *role.Word)
			others = append(others, p)
		}
	}
	s.Require().NotNil(impostor)
	s.Require().Len(others, 2)

	// 两个平民投中卧底，卧底投给平民
	s.Require().True(impostor.request(protocol.MsgSubmitVote, "v", protocol.SubmitVotePayload{TargetID: others[0].id}).OK)
	for _, p := range others {
		s.Require().True(p.request(protocol.MsgSubmitVote, "v", protocol.SubmitVotePayload{TargetID: impostor.id}).OK)
	}

	for _, p := range players {
		results, err := codec.ParsePayload[protocol.ResultsPayload](p.expect(protocol.MsgResults, ""))
		s.Require().NoError(err)
		s.Equal(impostor.id, results.ImpostorID)
		s.Equal("pizza", results.Word)
		s.Len(results.Votes, 3)
		s.Require().NotNil(results.VotesForImpostor)
		s.Equal(2, *results.VotesForImpostor)
	}

	// HTTP 查询房间状态
	status, body := s.get("/api/rooms/" + strings.ToLower(code))
	s.Require().Equal(http.StatusOK, status)
	var snap protocol.RoomSnapshot
	s.Require().NoError(json.Unmarshal(body, &snap))
	s.Equal("results", snap.Phase)
	s.Equal(1, snap.Round)
	total := 0
	for _, p := range snap.Players {
		total += p.Score
	}
	s.Equal(2, total)

	// 排行榜异步写入 Redis
	s.Eventually(func() bool {
		status, body := s.get("/api/leaderboard?limit=5")
		var entries []protocol.LeaderboardEntry
		return status == http.StatusOK && json.Unmarshal(body, &entries) == nil && len(entries) == 2
	}, 2*time.Second, 20*time.Millisecond)

	ack := p1.request(protocol.MsgGetLeaderboard, "lb", protocol.GetLeaderboardPayload{Limit: 1})
	s.Require().True(ack.OK)
	s.Len(ack.Leaderboard, 1)

	s.Eventually(func() bool {
		stats, err := s.server.leaderboard.GetRoundStats(context.Background())
		return err == nil && stats.Rounds == 1 && stats.Catches == 2
	}, 2*time.Second, 20*time.Millisecond)
}

func (s *ServerTestSuite) TestDisconnectLeavesRoom() {
	t := s.T()
	p1 := dial(t, s.http.URL, "")
	p2 := dial(t, s.http.URL, "protobuf")

	code := p1.request(protocol.MsgCreateRoom, "c", protocol.CreateRoomPayload{Name: "A"}).Room.ID
	s.Require().True(p2.request(protocol.MsgJoinRoom, "j", protocol.JoinRoomPayload{RoomCode: code, Name: "B"}).OK)

	s.Require().NoError(p1.conn.Close())

	// 剩下的玩家收到更新，房主转给 p2
	s.Eventually(func() bool {
		r := s.server.roomManager.GetRoom(code)
		return r != nil && r.PlayerCount() == 1 && r.OwnerID() == p2.id
	}, 2*time.Second, 20*time.Millisecond)

	update, err := codec.ParsePayload[protocol.RoomSnapshot](p2.expect(protocol.MsgRoomUpdate, ""))
	s.Require().NoError(err)
	s.NotEmpty(update.Players)

	s.Require().NoError(p2.conn.Close())
	s.Eventually(func() bool {
		return s.server.roomManager.GetRoom(code) == nil && s.server.GetOnlineCount() == 0
	}, 2*time.Second, 20*time.Millisecond)

	status, _ := s.get("/api/rooms/" + code)
	s.Equal(http.StatusNotFound, status)
}

func (s *ServerTestSuite) TestInvalidFrames() {
	t := s.T()
	c := dial(t, s.http.URL, "")

	s.Require().NoError(c.conn.WriteMessage(websocket.TextMessage, []byte("not json")))
	errMsg, err := codec.ParsePayload[protocol.ErrorPayload](c.expect(protocol.MsgError, ""))
	s.Require().NoError(err)
	s.Equal(protocol.ErrCodeInvalidMsg, errMsg.Code)

	c.send("play_cards", "x", nil)
	errMsg, err = codec.ParsePayload[protocol.ErrorPayload](c.expect(protocol.MsgError, ""))
	s.Require().NoError(err)
	s.Equal(protocol.ErrCodeInvalidMsg, errMsg.Code)

	// 连接仍然可用
	c.send(protocol.MsgPing, "p", protocol.PingPayload{Timestamp: 7})
	pong, err := codec.ParsePayload[protocol.PongPayload](c.expect(protocol.MsgPong, "p"))
	s.Require().NoError(err)
	s.Equal(int64(7), pong.ClientTimestamp)
}

func (s *ServerTestSuite) TestMaintenanceMode() {
	t := s.T()
	c := dial(t, s.http.URL, "")

	s.server.EnterMaintenanceMode()

	// 大厅中的连接收到通知
	notice, err := codec.ParsePayload[protocol.ErrorPayload](c.expect(protocol.MsgError, ""))
	s.Require().NoError(err)
	s.Equal(protocol.ErrCodeServerMaintenance, notice.Code)

	ack := c.request(protocol.MsgCreateRoom, "c", protocol.CreateRoomPayload{Name: "A"})
	s.False(ack.OK)
	s.Equal(protocol.ErrCodeServerMaintenance, ack.Error)

	status, _ := s.get("/health")
	s.Equal(http.StatusServiceUnavailable, status)

	_, resp, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(s.http.URL, "http")+"/ws", nil)
	s.Require().Error(err)
	s.Require().NotNil(resp)
	s.Equal(http.StatusServiceUnavailable, resp.StatusCode)
}

func (s *ServerTestSuite) TestGracefulShutdownWithoutActiveRounds() {
	t := s.T()
	c := dial(t, s.http.URL, "")
	s.Require().True(c.request(protocol.MsgCreateRoom, "c", protocol.CreateRoomPayload{Name: "A"}).OK)

	done := make(chan struct{})
	go func() {
		s.server.GracefulShutdown(time.Second)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(3 * time.Second):
		s.Fail("graceful shutdown did not finish")
	}
	s.True(s.server.IsMaintenanceMode())
}

func (s *ServerTestSuite) TestMetricsEndpoint() {
	t := s.T()
	c := dial(t, s.http.URL, "")
	s.Require().True(c.request(protocol.MsgCreateRoom, "c", protocol.CreateRoomPayload{Name: "A"}).OK)

	status, body := s.get("/metrics")
	s.Require().Equal(http.StatusOK, status)
	s.Contains(string(body), "word_impostor_online_players 1")
	s.Contains(string(body), "word_impostor_active_rooms 1")
	s.Contains(string(body), `word_impostor_messages_received_total{type="create_room"} 1`)
}

func (s *ServerTestSuite) TestAPI() {
	status, _ := s.get("/api/rooms/NOPE12")
	s.Equal(http.StatusNotFound, status)

	status, _ = s.get("/api/leaderboard?limit=abc")
	s.Equal(http.StatusBadRequest, status)

	status, body := s.get("/api/leaderboard?period=daily")
	s.Equal(http.StatusOK, status)
	s.JSONEq(`[]`, string(body))

	status, _ = s.get("/api/leaderboard/nobody")
	s.Equal(http.StatusNotFound, status)

	s.Require().NoError(s.rdb.ZAdd(context.Background(), "leaderboard:points", redis.Z{Score: 4, Member: "Alice"}).Err())
	status, body = s.get("/api/leaderboard/Alice")
	s.Equal(http.StatusOK, status)
	s.JSONEq(`{"name":"Alice","rank":1}`, string(body))

	status, body = s.get("/api/stats")
	s.Require().Equal(http.StatusOK, status)
	var stats StatsResponse
	s.Require().NoError(json.Unmarshal(body, &stats))
	s.Zero(stats.Rooms)
	s.False(stats.Maintenance)
}

func TestNewServer_ClearsStaleRooms(t *testing.T) {
	mr := miniredis.RunT(t)
	require.NoError(t, mr.Set("room:OLD123", "{}"))

	cfg := testConfig()
	cfg.Redis.Enabled = true
	cfg.Redis.Addr = mr.Addr()

	srv, err := NewServer(cfg)
	require.NoError(t, err)
	t.Cleanup(srv.close)

	require.False(t, mr.Exists("room:OLD123"))
}

func TestNewServer_Errors(t *testing.T) {
	t.Run("redis unreachable", func(t *testing.T) {
		mr := miniredis.RunT(t)
		addr := mr.Addr()
		mr.Close()

		cfg := testConfig()
		cfg.Redis.Enabled = true
		cfg.Redis.Addr = addr

		_, err := NewServer(cfg)
		require.Error(t, err)
	})

	t.Run("missing words file", func(t *testing.T) {
		cfg := testConfig()
		cfg.Game.WordsFile = "/nonexistent/words.yaml"

		_, err := NewServer(cfg)
		require.Error(t, err)
	})

	t.Run("without redis", func(t *testing.T) {
		srv, err := NewServer(testConfig())
		require.NoError(t, err)
		t.Cleanup(srv.close)
		require.Nil(t, srv.redis)
	})
}
