package sessions

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	jwt "github.com/dgrijalva/jwt-go"
	"github.com/gomodule/redigo/redis"

	. "bboard/pkg/common"
)

const (
	redisNS    = "bboardSessions"
	CookieName = "session_id"

	sessionTTL = 90 * 24 * time.Hour
)

type (
	sessionKey string

	// SessionUser is the authenticated-user record a session carries.
	// It is what handlers see; the full account row stays in the store.
	SessionUser struct {
		Id          int64  `json:"id"`
		Username    string `json:"username"`
		DisplayName string `json:"displayName"`
	}

	SessionManager struct {
		secret []byte
		redis  redis.Conn
	}

	jwtClaims struct {
		User SessionUser `json:"user"`
		jwt.StandardClaims
	}
)

const SessionKey sessionKey = "authenticatedUser"

var ErrNoAuth = errors.New("sessions: no session found")

func NewSessionManager(secret string, conn redis.Conn) *SessionManager {
	return &SessionManager{
		secret: []byte(secret),
		redis:  conn,
	}
}

// Create starts a session for the user: a signed JWT in the session
// cookie plus a session record in Redis.
func (sm *SessionManager) Create(w http.ResponseWriter, u *SessionUser) error {
	sessionID := RandStringRunes(10)
	expiresAt := time.Now().Add(sessionTTL)
	data := jwtClaims{
		User: *u,
		StandardClaims: jwt.StandardClaims{
			ExpiresAt: expiresAt.Unix(),
			IssuedAt:  time.Now().Unix(),
			Id:        sessionID,
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, data).SignedString(sm.secret)
	if err != nil {
		return err
	}

	if err := sm.AddToRedis(u.Id, sessionID, data.ExpiresAt); err != nil {
		log.Println("session/manager: failed add to redis", err)
		return err
	}

	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		Expires:  expiresAt,
		HttpOnly: true,
	})
	return nil
}

// UserFromRequest returns the logged in user if the request carries a
// session cookie with a valid JWT and the session is still live in Redis.
func (sm *SessionManager) UserFromRequest(r *http.Request) (*SessionUser, error) {
	cookie, err := r.Cookie(CookieName)
	if err != nil {
		return nil, ErrNoAuth
	}

	claims, err := sm.parseToken(cookie.Value)
	if err != nil {
		return nil, err
	}

	_, redisErr := sm.CheckRedis(claims.User.Id, claims.Id)
	if redisErr != nil {
		return nil, fmt.Errorf("session/manager: Redis session is not valid: %v", redisErr)
	}

	return &claims.User, nil
}

// Destroy ends the request's session: removes it from Redis and expires
// the cookie. A request with no session is not an error.
func (sm *SessionManager) Destroy(w http.ResponseWriter, r *http.Request) error {
	cookie, err := r.Cookie(CookieName)
	if err == nil {
		if claims, parseErr := sm.parseToken(cookie.Value); parseErr == nil {
			if _, delErr := sm.redis.Do("HDEL", userNS(claims.User.Id), claims.Id); delErr != nil {
				return fmt.Errorf("session/manager: failed HDEL from Redis: %v", delErr)
			}
		}
	}

	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
	})
	return nil
}

func (sm *SessionManager) parseToken(tokenString string) (*jwtClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &jwtClaims{},
		func(token *jwt.Token) (interface{}, error) {
			return []byte(sm.secret), nil
		})
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*jwtClaims)
	if !ok {
		return nil, errors.New("sessions: can't cast token to claim")
	}
	if !token.Valid {
		return nil, errors.New("sessions: token is not valid")
	}
	return claims, nil
}

// Goes through all user sessions and removes expired ones.
func (sm *SessionManager) CleanupUserSessions(userId int64) error {
	sessions, err := redis.StringMap(sm.redis.Do("HGETALL", userNS(userId)))
	if err != nil {
		log.Println("session/manager: can't HGETALL user sessions from Redis:", err)
		return err
	}

	nowTs := time.Now().Unix()
	for sessId, exp := range sessions {
		expTs, _ := strconv.ParseInt(exp, 10, 64)
		if nowTs > expTs {
			sm.redis.Do("HDEL", userNS(userId), sessId)
			log.Printf("session/manager: session %s removed (expired at %s)\n", sessId, exp)
		}
	}

	return nil
}

func (sm *SessionManager) CheckRedis(userId int64, sessionId string) (bool, error) {
	expirationData, err := redis.Bytes(sm.redis.Do("HGET", userNS(userId), sessionId))
	if err != nil {
		log.Println("session/manager: can't HGET from Redis:", err)
		return false, err
	}

	// Check user session for expiration
	expiredTs, _ := strconv.ParseInt(string(expirationData), 10, 64)
	nowTs := time.Now().Unix()
	if nowTs > expiredTs {
		return false, errors.New("session has been expired")
	}

	// Prolongate session expiration time if it expires in less than 24 hours
	// because we don't want to kick off the active user.
	if expiredTs-nowTs < int64(time.Duration(24*time.Hour).Seconds()) {
		newExpDate := time.Now().Add(sessionTTL).Unix()
		err := sm.AddToRedis(userId, sessionId, newExpDate)
		if err != nil {
			log.Println("session/manager: failed add to Redis", err)
			return false, err
		}
	}

	return true, nil
}

func (sm *SessionManager) AddToRedis(userId int64, sessionId string, exp int64) error {
	_, err := sm.redis.Do("HSET", userNS(userId), sessionId, exp)
	if err != nil {
		return fmt.Errorf("session/manager: failed HSET to Redis: %v", err)
	}
	return nil
}

func userNS(userId int64) string {
	return fmt.Sprintf("%s:%d", redisNS, userId)
}

func GetAuthUser(ctx context.Context) (*SessionUser, error) {
	user, ok := ctx.Value(SessionKey).(*SessionUser)
	if !ok || user == nil {
		return nil, ErrNoAuth
	}
	return user, nil
}
