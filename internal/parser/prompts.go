package parser

// criteriaPromptTemplate 招聘条件提取 prompt，%s 为职位描述全文
const criteriaPromptTemplate = `Extract and list the key hiring criteria from the following job description.
Focus on required skills, experience, certifications, and qualifications.

Job Description:
%s

Return ONLY a JSON object in this format, without markdown or commentary:
{
    "criteria": [
        "Must have certification XYZ",
        "5+ years of experience in Python development",
        "Strong background in Machine Learning"
    ]
}`

// resumeDetailsPromptTemplate 简历要素提取 prompt，%s 为简历全文
const resumeDetailsPromptTemplate = `Extract and list key details from the following resume.

Resume Content:
%s

Return ONLY structured JSON, without markdown or commentary:
{
    "skills": ["list of skills"],
    "experience": "total years of experience",
    "certifications": ["list of certifications"],
    "qualifications": ["list of qualifications"]
}`
