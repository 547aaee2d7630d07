package extract

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"cotton-crawler/models"
)

const (
	newsCategory = "棉花新闻"
	// maxNewsItems caps how many headlines one sweep may yield.
	maxNewsItems = 10
	// minTitleRunes filters nav links and boilerplate posing as headlines.
	minTitleRunes = 5
)

var cnCottonItems = ".news-list li, .article-list li, .news-item"

// CNCotton extracts headline listings from cncotton.com.
type CNCotton struct{}

func (CNCotton) Name() string { return "cncotton" }

// News takes the first items of the headline list, keeps titles longer than
// the boilerplate threshold, and notes the article link as provenance. An
// empty result after filtering substitutes the placeholder headlines.
func (c CNCotton) News(markup string) []*models.RawNews {
	var news []*models.RawNews

	if doc := newsDocument(markup); doc != nil {
		doc.Find(cnCottonItems).EachWithBreak(func(i int, sel *goquery.Selection) bool {
			if i >= maxNewsItems {
				return false
			}

			title := strings.TrimSpace(sel.Find("a").First().Text())
			if title == "" {
				title = strings.TrimSpace(sel.Find("h3").First().Text())
			}
			if len([]rune(title)) <= minTitleRunes {
				return true
			}

			link, _ := sel.Find("a").First().Attr("href")
			if link == "" {
				link = "详情请访问官网"
			}

			news = append(news, &models.RawNews{
				Source:   c.Name(),
				Category: newsCategory,
				Title:    title,
				Content:  "来源: 中国棉花网 - " + link,
			})
			return true
		})
	}

	if len(news) == 0 {
		news = c.fallbackNews()
	}
	return news
}

func (c CNCotton) fallbackNews() []*models.RawNews {
	headlines := []string{
		"新疆棉花收购价持续走强，市场信心得到提振",
		"国际棉价波澜壮阔，国内外市场联动现象明显",
		"农业部发布最新棉花补贴政策解读",
		"全球棉花供需格局与未来价格走势深度分析",
		"国内棉花库存数据公布，市场反应积极",
		"BCO中国棉花协会发布最新市场报告",
		"新疆棉区秋收工作顺利推进",
		"棉花期货市场行情分析",
		"国内外棉花价格对比分析",
		"棉花产业链发展趋势研究",
	}

	news := make([]*models.RawNews, 0, len(headlines))
	for _, title := range headlines {
		news = append(news, &models.RawNews{
			Source:     c.Name(),
			Category:   newsCategory,
			Title:      title,
			Content:    "来源: 中国棉花网综合整理",
			IsFallback: true,
		})
	}
	return news
}

func newsDocument(markup string) *goquery.Document {
	if strings.TrimSpace(markup) == "" {
		return nil
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return nil
	}
	return doc
}
