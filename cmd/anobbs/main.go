package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"GoAnoBBSClient/internal/client"
	"GoAnoBBSClient/internal/config"
	"GoAnoBBSClient/internal/network"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
)

// コマンドラインフラグ
var (
	configFile *string

	boardID     *int64
	threadID    *int64
	page        *int
	forAnalysis *bool

	replyTo *int64
	content *string
	name    *string
	email   *string
	title   *string
)

func init() {
	configFile = pflag.String("config", "config.json", "設定ファイルのパス")

	boardID = pflag.Int64("board", 0, "指定した板の一覧ページを取得します")
	threadID = pflag.Int64("thread", 0, "指定した串のページを取得します")
	page = pflag.Int("page", 1, "取得するページ番号")
	forAnalysis = pflag.Bool("for-analysis", false, "分析用に運営の返信を除外します")

	replyTo = pflag.Int64("reply-to", 0, "指定した串に返信を投稿します")
	content = pflag.String("content", "", "返信の本文")
	name = pflag.String("name", "", "返信の名前欄 (省略可)")
	email = pflag.String("email", "", "返信のメール欄 (省略可)")
	title = pflag.String("title", "", "返信のタイトル欄 (省略可)")
}

// main関数はAnoBBSクライアントCLIのエントリーポイントです。
func main() {
	// .envファイルがあれば環境変数として読み込む（ANOBBS_USERHASHなど）
	_ = godotenv.Load()
	pflag.Parse()

	cfg, err := config.LoadAndResolve(*configFile)
	if err != nil {
		log.Fatalf("設定ファイルの読み込みに失敗しました: %v", err)
	}

	c, err := client.New(cfg, nil)
	if err != nil {
		log.Fatalf("クライアントの初期化に失敗しました: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// シグナルハンドリング
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan
		log.Println("終了シグナルを受信しました。処理を中断します...")
		cancel()
	}()

	switch {
	case *threadID != 0:
		runGetThread(ctx, c)
	case *boardID != 0:
		runGetBoard(ctx, c)
	case *replyTo != 0:
		runReply(ctx, c)
	default:
		fmt.Fprintln(os.Stderr, "モードを指定してください: --thread, --board, --reply-to のいずれか")
		pflag.Usage()
		os.Exit(2)
	}
}

func runGetThread(ctx context.Context, c *client.Client) {
	thread, usage, err := c.GetThreadPage(ctx, *threadID, *page, nil, *forAnalysis)
	if err != nil {
		log.Fatalf("串の取得に失敗しました: %v", err)
	}
	printJSON(thread)
	logUsage(usage)
}

func runGetBoard(ctx context.Context, c *client.Client) {
	board, usage, err := c.GetBoardPage(ctx, *boardID, *page, nil)
	if err != nil {
		log.Fatalf("板の取得に失敗しました: %v", err)
	}
	printJSON(board)
	logUsage(usage)
}

func runReply(ctx context.Context, c *client.Client) {
	if *content == "" {
		log.Fatalf("--reply-to には --content が必要です")
	}
	req := client.ReplyRequest{
		ToThreadID: *replyTo,
		Content:    *content,
		Name:       *name,
		Email:      *email,
		Title:      *title,
	}
	usage, err := c.ReplyThread(ctx, req, nil)
	if err != nil {
		log.Fatalf("返信の投稿に失敗しました: %v", err)
	}
	log.Printf("INFO: 串 %d への返信を投稿しました", *replyTo)
	logUsage(usage)
}

func printJSON(v interface{}) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		log.Fatalf("結果のシリアライズに失敗しました: %v", err)
	}
	fmt.Println(string(data))
}

func logUsage(usage network.BandwidthUsage) {
	log.Printf("INFO: 帯域使用量: 送信 %d バイト, 受信 %d バイト", usage.Sent, usage.Received)
}
