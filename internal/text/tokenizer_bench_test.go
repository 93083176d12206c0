package text

import (
	"fmt"
	"strings"
	"testing"
)

var samplePosts = map[string]string{
	"short":  "Привет всем!!! Как дела?)))",
	"medium": "Сегодня [id42|Маша] сказала, что ёлку поставим завтра :) А я думаю, что лучше сейчас... Кто-то против?! Пишите в комментариях, ок?",
	"long": strings.Repeat("Ну что, друзья, погода сегодня просто супер!!! Идём гулять? "+
		"Don't forget the snacks :D (и воду, конечно) https://vk.com/wall-1_2 ", 40),
}

func BenchmarkPrepare(b *testing.B) {
	for name, post := range samplePosts {
		b.Run(name, func(b *testing.B) {
			b.ReportAllocs()
			b.SetBytes(int64(len(post)))
			for i := 0; i < b.N; i++ {
				_ = Prepare(post)
			}
		})
	}
}

func BenchmarkNormalize(b *testing.B) {
	post := samplePosts["medium"]
	b.ReportAllocs()
	b.SetBytes(int64(len(post)))
	for i := 0; i < b.N; i++ {
		_ = Normalize(post)
	}
}

func BenchmarkTokenizeVaryingSize(b *testing.B) {
	sizes := []int{10, 100, 500, 1000, 5000}
	base := "кто-то пишет так, а кто-то иначе!!! "
	for _, size := range sizes {
		post := strings.Repeat(base, size/len(base)+1)[:size]
		b.Run(fmt.Sprintf("bytes_%d", size), func(b *testing.B) {
			b.ReportAllocs()
			b.SetBytes(int64(len(post)))
			for i := 0; i < b.N; i++ {
				_ = Tokenize(post)
			}
		})
	}
}
