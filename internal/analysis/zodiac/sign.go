package zodiac

import (
	"time"

	"github.com/manishsharma864/ai-horroscope/internal/model/birth"
)

// Sign 表示十二星座之一。
type Sign string

const (
	Aries       Sign = "aries"
	Taurus      Sign = "taurus"
	Gemini      Sign = "gemini"
	Cancer      Sign = "cancer"
	Leo         Sign = "leo"
	Virgo       Sign = "virgo"
	Libra       Sign = "libra"
	Scorpio     Sign = "scorpio"
	Sagittarius Sign = "sagittarius"
	Capricorn   Sign = "capricorn"
	Aquarius    Sign = "aquarius"
	Pisces      Sign = "pisces"
)

// Element 表示星座所属的四元素。
type Element string

const (
	Fire  Element = "fire"
	Earth Element = "earth"
	Air   Element = "air"
	Water Element = "water"
)

// Modality 表示星座的三态。
type Modality string

const (
	Cardinal Modality = "cardinal"
	Fixed    Modality = "fixed"
	Mutable  Modality = "mutable"
)

// Reading 汇总基于出生日期的简化指标。
type Reading struct {
	Sign     Sign     `json:"sign"`
	Element  Element  `json:"element"`
	Modality Modality `json:"modality"`
}

// Indices 同时给出回归黄道与恒星黄道（吠陀）下的太阳星座。
type Indices struct {
	Tropical Reading `json:"tropical"`
	Sidereal Reading `json:"sidereal"`
}

// ayanamsaDays 用固定天数近似岁差偏移，只用于展示，不追求精度。
const ayanamsaDays = 24

// cusp 记录每个星座在回归黄道中的起始日期。
type cusp struct {
	month time.Month
	day   int
	sign  Sign
}

// 按年内顺序排列，摩羯座跨年，放在首尾两端处理。
var cusps = []cusp{
	{time.January, 20, Aquarius},
	{time.February, 19, Pisces},
	{time.March, 21, Aries},
	{time.April, 20, Taurus},
	{time.May, 21, Gemini},
	{time.June, 21, Cancer},
	{time.July, 23, Leo},
	{time.August, 23, Virgo},
	{time.September, 23, Libra},
	{time.October, 23, Scorpio},
	{time.November, 22, Sagittarius},
	{time.December, 22, Capricorn},
}

var elements = map[Sign]Element{
	Aries: Fire, Leo: Fire, Sagittarius: Fire,
	Taurus: Earth, Virgo: Earth, Capricorn: Earth,
	Gemini: Air, Libra: Air, Aquarius: Air,
	Cancer: Water, Scorpio: Water, Pisces: Water,
}

var modalities = map[Sign]Modality{
	Aries: Cardinal, Cancer: Cardinal, Libra: Cardinal, Capricorn: Cardinal,
	Taurus: Fixed, Leo: Fixed, Scorpio: Fixed, Aquarius: Fixed,
	Gemini: Mutable, Virgo: Mutable, Sagittarius: Mutable, Pisces: Mutable,
}

// Compute 返回出生日期对应的简化星座指标。
func Compute(date birth.Date) Indices {
	day := time.Date(date.Year, date.Month, date.Day, 0, 0, 0, 0, time.UTC)
	return Indices{
		Tropical: readingFor(sunSign(day.Month(), day.Day())),
		Sidereal: readingFor(siderealSign(day)),
	}
}

// sunSign 根据月日返回回归黄道太阳星座。
func sunSign(month time.Month, day int) Sign {
	sign := Capricorn
	for _, c := range cusps {
		if month > c.month || (month == c.month && day >= c.day) {
			sign = c.sign
		}
	}
	return sign
}

func siderealSign(day time.Time) Sign {
	shifted := day.AddDate(0, 0, -ayanamsaDays)
	return sunSign(shifted.Month(), shifted.Day())
}

func readingFor(sign Sign) Reading {
	return Reading{
		Sign:     sign,
		Element:  elements[sign],
		Modality: modalities[sign],
	}
}
