// Package server exposes HTTP handlers, including WebSocket upgrades, health
// checks, and the chat page.
package server

import (
	"fmt"
	"html/template"
	"log"
	"net/http"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     checkOrigin,
}

// resolveUsername decides the identity for a new connection: an explicit
// username query parameter wins, then a valid session cookie, then a fresh
// guest name. Identity assignment never fails the connection.
func resolveUsername(r *http.Request) string {
	if username := r.URL.Query().Get("username"); username != "" {
		return username
	}
	if username, ok := usernameFromSession(r); ok {
		return username
	}
	username := generateGuestUsername()
	log.Printf("New user: %s", username)
	return username
}

// WebSocketHandler handles WebSocket upgrade requests against the global hub.
func WebSocketHandler(w http.ResponseWriter, r *http.Request) {
	ServeWebSocket(hub, w, r)
}

// ServeWebSocket handles a WebSocket upgrade request for the given hub. It
// validates that the request uses the GET method, resolves the visitor's
// username, upgrades the connection, and hands the new client to the hub,
// which registers it and starts its read/write pumps.
func ServeWebSocket(h *Hub, w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed. WebSocket endpoint only accepts GET requests.", http.StatusMethodNotAllowed)
		return
	}

	username := resolveUsername(r)

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade failed: %v", err)
		return
	}

	client := NewClient(conn, h, r.RemoteAddr, username)
	client.hub.register <- client
}

// HealthHandler provides a simple health check endpoint that returns server status.
// It responds with a plain text message indicating the server is running.
func HealthHandler(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	_, _ = fmt.Fprintf(w, "Chat server is running!")
}

var indexTemplate = template.Must(template.New("index").Parse(`<!DOCTYPE html>
<html>
<head>
    <title>Zero to Knowing Chat</title>
    <style>
        body { font-family: Arial, sans-serif; margin: 20px; }
        #messages {
            border: 1px solid #ccc;
            height: 300px;
            padding: 10px;
            overflow-y: scroll;
            margin: 10px 0;
            background-color: #f9f9f9;
        }
        #users { color: #555; margin: 10px 0; }
        input[type="text"] { width: 300px; padding: 5px; margin-right: 10px; }
        select { padding: 5px; margin-right: 10px; }
        button {
            padding: 5px 15px;
            background-color: #007cba;
            color: white;
            border: none;
            cursor: pointer;
        }
        button:hover { background-color: #005a87; }
        .status { color: gray; font-style: italic; }
        .private { color: purple; }
    </style>
</head>
<body>
    <h1>Zero to Knowing Chat</h1>
    <p>You are <strong id="username">{{.Username}}</strong></p>

    <div>
        <select id="roomSelect">
            {{range .Rooms}}<option value="{{.}}">{{.}}</option>
            {{end}}
        </select>
        <button onclick="joinRoom()">Join</button>
        <button onclick="leaveRoom()">Leave</button>
    </div>

    <div id="users">Online: -</div>
    <div id="messages"></div>

    <div>
        <input type="text" id="messageInput" placeholder="Type a message...">
        <button onclick="sendMessage()">Send</button>
    </div>

    <script>
        const username = document.getElementById('username').textContent;
        const messagesDiv = document.getElementById('messages');
        const roomSelect = document.getElementById('roomSelect');
        const messageInput = document.getElementById('messageInput');
        let currentRoom = null;

        const ws = new WebSocket((location.protocol === 'https:' ? 'wss://' : 'ws://') + location.host + '/ws');

        function addLine(text, cls) {
            const line = document.createElement('div');
            if (cls) line.className = cls;
            line.textContent = text;
            messagesDiv.appendChild(line);
            messagesDiv.scrollTop = messagesDiv.scrollHeight;
        }

        ws.onmessage = function(event) {
            const data = JSON.parse(event.data);
            switch (data.event) {
            case 'active_users':
                document.getElementById('users').textContent = 'Online: ' + data.users.join(', ');
                break;
            case 'status':
                addLine(data.msg, 'status');
                break;
            case 'message':
                addLine('[' + data.room + '] ' + data.username + ': ' + data.msg);
                break;
            case 'private_message':
                addLine('(private) ' + data.from + ': ' + data.msg, 'private');
                break;
            }
        };

        function joinRoom() {
            currentRoom = roomSelect.value;
            ws.send(JSON.stringify({event: 'join', username: username, room: currentRoom}));
        }

        function leaveRoom() {
            if (!currentRoom) return;
            ws.send(JSON.stringify({event: 'leave', username: username, room: currentRoom}));
            currentRoom = null;
        }

        function sendMessage() {
            const msg = messageInput.value.trim();
            if (!msg) return;
            if (msg.startsWith('@')) {
                const space = msg.indexOf(' ');
                if (space > 1) {
                    ws.send(JSON.stringify({
                        event: 'message',
                        type: 'private',
                        target_user: msg.slice(1, space),
                        msg: msg.slice(space + 1)
                    }));
                    messageInput.value = '';
                    return;
                }
            }
            ws.send(JSON.stringify({event: 'message', room: currentRoom || 'General', msg: msg}));
            messageInput.value = '';
        }

        messageInput.addEventListener('keypress', function(e) {
            if (e.key === 'Enter') sendMessage();
        });
    </script>
</body>
</html>`))

// IndexHandler serves the chat page. It assigns a guest username and a signed
// session cookie to first-time visitors so the identity survives the upgrade
// request, and renders the configured room list.
func IndexHandler(w http.ResponseWriter, r *http.Request) {
	username, ok := usernameFromSession(r)
	if !ok {
		username = generateGuestUsername()
		setSessionCookie(w, username)
		log.Printf("New user: %s", username)
	}

	w.Header().Set("Content-Type", "text/html")
	err := indexTemplate.Execute(w, struct {
		Username string
		Rooms    []string
	}{
		Username: username,
		Rooms:    currentConfig().Rooms,
	})
	if err != nil {
		log.Printf("Error rendering index page: %v", err)
	}
}
