package models

import (
	"strings"

	"github.com/openai/openai-go/v3"
	"google.golang.org/adk/model"
	"google.golang.org/genai"

	"github.com/easeaico/crystal-sanctuary/internal/utils"
)

// buildOpenAIParams 把 ADK 请求转换成 chat completion 参数，请求未指定模型时使用 fallback。
func buildOpenAIParams(req *model.LLMRequest, fallback string) *openai.ChatCompletionNewParams {
	params := openai.ChatCompletionNewParams{Model: req.Model}
	if params.Model == "" {
		params.Model = fallback
	}

	var messages []openai.ChatCompletionMessageParamUnion
	cfg := req.Config
	if cfg != nil {
		if text := utils.ExtractContentText(cfg.SystemInstruction); text != "" {
			messages = append(messages, openai.SystemMessage(text))
		}
		if cfg.Temperature != nil {
			params.Temperature = openai.Float(float64(*cfg.Temperature))
		}
		if cfg.TopP != nil {
			params.TopP = openai.Float(float64(*cfg.TopP))
		}
		if cfg.PresencePenalty != nil {
			params.PresencePenalty = openai.Float(float64(*cfg.PresencePenalty))
		}
		if cfg.MaxOutputTokens > 0 {
			params.MaxCompletionTokens = openai.Int(int64(cfg.MaxOutputTokens))
		}
	}
	params.Messages = append(messages, historyMessages(req.Contents)...)
	return &params
}

// historyMessages 转换对话历史。多位同伴的发言都是 model 角色，
// 相邻的同角色内容合并成一条，空内容直接跳过。
func historyMessages(contents []*genai.Content) []openai.ChatCompletionMessageParamUnion {
	type turn struct {
		role  string
		lines []string
	}
	var turns []turn
	for _, content := range contents {
		text := strings.TrimSpace(utils.ExtractContentText(content))
		if text == "" {
			continue
		}
		role := "user"
		if content.Role == "model" {
			role = "model"
		}
		if n := len(turns); n > 0 && turns[n-1].role == role {
			turns[n-1].lines = append(turns[n-1].lines, text)
			continue
		}
		turns = append(turns, turn{role: role, lines: []string{text}})
	}

	messages := make([]openai.ChatCompletionMessageParamUnion, 0, len(turns))
	for _, t := range turns {
		text := strings.Join(t.lines, "\n")
		if t.role == "model" {
			messages = append(messages, openai.AssistantMessage(text))
		} else {
			messages = append(messages, openai.UserMessage(text))
		}
	}
	return messages
}
