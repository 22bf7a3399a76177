package prompt

// Rule fragments present in every generation prompt regardless of channel.
const (
	FactCompletenessDirective = "확정 정보와 원문에 있는 모든 숫자, 날짜, 수량, 기간은 출력에 1:1로 그대로 포함해야 합니다."
	NoFabricationDirective    = "원문에 없는 사실, 수치, 인용, 사례를 지어내지 마세요."
	NoArithmeticDirective     = "원문에 없는 수치를 계산해서 만들지 마세요. 합계, 비율, 증가율, 환산 값 같은 파생 수치를 새로 만들지 않습니다."
)

const periodQuantityRule = "기간과 수량이 함께 쓰인 표현(예: \"3년 계약, 연 300대 규모\")은 분리하거나 줄이지 말고 원문 그대로 유지하세요."

const factOmissionRule = "하나라도 빠지면 검수에서 fact_omission(critical) 이슈로 처리되어 자동 수정 대상이 됩니다."

const noTagRule = "\"[태그: ...]\" 형식의 태그 줄이나 태그 목록은 만들지 마세요. 해시태그는 채널 규칙이 요구할 때만 지정된 위치에 작성합니다."

const plainTextRule = "마크다운 문법(**, ##, - 목록, 코드 블록)을 쓰지 말고 일반 텍스트로 작성하세요. 채널 이름이나 [제목], [본문] 같은 대괄호 섹션 표시는 출력하지 마세요."

var languageRules = map[string]string{
	"ko":    "한국어로만 작성하세요.",
	"en":    "영어로만 작성하세요. 해시태그도 영어로 작성합니다.",
	"ko+en": "한국어 본문과 해시태그를 먼저 작성하고, \"---\" 한 줄로 구분한 뒤 같은 내용의 영어 본문을 작성하세요.",
}

const carouselRule = "캐러셀 형식으로 작성하세요. 각 장은 \"슬라이드 1:\" 처럼 번호를 붙여 시작하고 5~7장으로 구성합니다. 마지막 줄에 해시태그를 한 줄로 작성합니다."
