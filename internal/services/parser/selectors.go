package parser

// Fallback selector chains, ordered most to least specific. A configured
// selector always runs first; these keep extraction alive when site markup
// shifts under the configuration.

var searchContainerChain = []string{
	".joblist", ".j_joblist", ".job-list-box", "#resultList", ".sojob-list",
}

var searchItemChain = []string{
	".joblist-item", ".e", ".job-card-wrapper", ".sojob-item-main", "li.job-item",
}

var searchFieldChains = map[string][]string{
	"title":        {".jname", ".job-title", ".t1 a", ".job-name", "a.title"},
	"company":      {".cname", ".company-name", ".t2 a", ".comp-name"},
	"salary":       {".sal", ".job-salary", ".t4", ".salary"},
	"location":     {".area", ".job-area", ".t3", ".location"},
	"experience":   {".exp", ".job-exp", ".experience"},
	"education":    {".edu", ".job-edu", ".education"},
	"publish_time": {".time", ".job-pub-time", ".t5"},
}

var detailFieldChains = map[string][]string{
	"description":   {"#job-description", ".bmsg.job_msg", ".job-detail .bmsg", ".job-sec .text", ".describtion__detail-content", ".job-description"},
	"requirements":  {".job-requirements", ".requirement", ".job-require"},
	"benefits":      {".jtag", ".job-welfare", ".welfare", ".benefits"},
	"salary":        {".cn strong", ".job-salary", ".salary"},
	"location":      {".cn .lname", ".job-address", ".work-addr", ".location"},
	"experience":    {".job-exp", ".experience"},
	"education":     {".job-edu", ".education"},
	"publish_time":  {".job-pub-time", ".publish-time", ".time"},
	"company_scale": {".com_tag .people", ".company-scale", ".scale"},
	"industry":      {".com_tag .int", ".company-industry", ".industry"},
}

// detailInfoLineChain locates the compact "地点｜经验｜学历" strip many detail
// pages use instead of per-field nodes.
var detailInfoLineChain = []string{
	".msg.ltype", ".msg", ".job-request p", ".job-title-left .gray",
}

// descriptionFallbackChain feeds the largest-text fallback when every
// description selector misses.
var descriptionFallbackChain = []string{
	".job-detail", ".detail-content", "article", "main", "#content",
}

var nextPageChain = []string{
	".btn-next", ".next", "a.next-page", ".pagination-next", ".ui-pager .next", "li.next a",
}

// disabledMarkers on a next control mean the last page was reached.
var disabledMarkers = []string{"disabled", "is-disabled", "btn-disabled"}

var captchaMarkers = []string{
	"验证码", "安全验证", "访问验证", "captcha", "security check", "verify you are human", "滑块",
}

var blockedMarkers = []string{
	"访问受限", "访问异常", "请求过于频繁", "access denied", "403 forbidden", "blocked",
}

var errorMarkers = []string{
	"页面不存在", "404", "服务器错误", "500 internal", "something went wrong",
}
