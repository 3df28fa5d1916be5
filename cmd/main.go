package main

import (
	"database/sql"
	"log"
	"math/rand"
	"net/http"
	"os"
	"time"

	"github.com/gomodule/redigo/redis"
	"github.com/gorilla/mux"
	"github.com/joho/godotenv"

	"bboard/pkg/logger"
	"bboard/pkg/middleware"
	"bboard/pkg/post"
	"bboard/pkg/sessions"
	"bboard/pkg/user"
	"bboard/pkg/user/api"
)

type EnvConfig map[string]string

func init() {
	rand.Seed(time.Now().UnixNano())
}

func main() {
	var cfg EnvConfig = readDotenv()

	db, err := sql.Open("pgx", "postgresql://localhost/"+cfg["POSTGRES_DB"]+"?sslmode=disable")
	if err != nil {
		log.Printf("Unable to connect to database: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()
	if err := db.Ping(); err != nil {
		log.Fatalf("unable to reach PostgreSQL: %v", err)
	}

	redisConn, err := redis.DialURL(cfg["REDIS_ADDR"])
	if err != nil {
		log.Fatalf("main: can't connect to Redis")
	}
	defer redisConn.Close()

	postsRepo := post.NewPostRepo(db)
	usersRepo := user.NewUserRepo(db)
	sessionManager := sessions.NewSessionManager(cfg["SECRET_KEY"], redisConn)
	postHandler := post.NewPostHandler(postsRepo)
	userHandler := api.NewUserHandler(usersRepo, sessionManager)

	r := mux.NewRouter()

	// Generate fake content to have something on the boards
	// seed(usersRepo, postsRepo)

	r.HandleFunc("/", rootRedirect).Methods("GET")

	auth := middleware.NewAuthMiddleware(sessionManager, usersRepo)

	// Auth
	authRouter := r.PathPrefix("/auth").Subrouter()
	authRouter.HandleFunc("/register", userHandler.Register).Methods("POST")
	authRouter.HandleFunc("/login", userHandler.LogIn).Methods("POST")
	authRouter.HandleFunc("/logout", userHandler.LogOut).Methods("POST")

	profileRouter := authRouter.PathPrefix("/profile").Subrouter()
	profileRouter.Use(auth.RequireAuth)
	profileRouter.HandleFunc("", userHandler.Profile).Methods("GET")
	profileRouter.HandleFunc("", userHandler.UpdateProfile).Methods("POST")

	// Boards: every route requires a logged in session
	boards := r.PathPrefix("/boards").Subrouter()
	boards.Use(auth.RequireAuth)
	boards.HandleFunc("/{boardType}", postHandler.List).Methods("GET")
	boards.HandleFunc("/{boardType}", postHandler.Create).Methods("POST")
	boards.HandleFunc("/{boardType}/new", postHandler.NewForm).Methods("GET")
	boards.HandleFunc("/{boardType}/{id:[0-9]+}", postHandler.Detail).Methods("GET")
	boards.HandleFunc("/{boardType}/{id:[0-9]+}/edit", postHandler.EditForm).Methods("GET")
	boards.HandleFunc("/{boardType}/{id:[0-9]+}/edit", postHandler.Update).Methods("POST")
	boards.HandleFunc("/{boardType}/{id:[0-9]+}/delete", postHandler.Delete).Methods("POST")

	r.Use(auth.Middleware)

	logMiddleware := middleware.NewLoggingMiddleware(logger.Run(cfg["LOG_LEVEL"]))
	r.Use(logMiddleware.SetupTracing)
	r.Use(logMiddleware.SetupLogging)
	r.Use(logMiddleware.AccessLog)

	addr := cfg["HTTP_ADDR"]
	if addr == "" {
		addr = ":8080"
	}
	log.Printf("Serving at http://localhost%s/", addr)
	log.Fatalln(http.ListenAndServe(addr, r))
}

func rootRedirect(w http.ResponseWriter, r *http.Request) {
	if _, err := sessions.GetAuthUser(r.Context()); err != nil {
		http.Redirect(w, r, "/auth/login", http.StatusFound)
		return
	}
	http.Redirect(w, r, "/boards/free", http.StatusFound)
}

func readDotenv() EnvConfig {
	env, err := godotenv.Read()
	if err != nil {
		log.Fatal("failed reading .env file:", err)
	}
	return env
}
