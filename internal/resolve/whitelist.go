package resolve

// pythonPackages is the embedded pip-installable allow-list, 115 entries
// across the categories a skill's compatibility string is likely to name.
// A package not listed here is not matched by the allow-list layer.
var pythonPackages = []string{
	"requests", "httpx", "aiohttp", "urllib3", "httplib2",
	"numpy", "pandas", "scipy", "scikit-learn", "statsmodels",
	"tensorflow", "keras", "torch", "pytorch", "transformers",
	"xgboost", "lightgbm", "catboost", "onnx", "onnxruntime",
	"matplotlib", "seaborn", "plotly", "bokeh", "altair",
	"flask", "django", "fastapi", "starlette", "uvicorn", "gunicorn",
	"sanic", "tornado", "bottle", "pyramid",
	"beautifulsoup4", "lxml", "scrapy", "selenium", "playwright",
	"html5lib", "cssselect",
	"pillow", "opencv-python", "imageio", "scikit-image",
	"pyyaml", "toml", "tomli", "python-dotenv", "configparser",
	"sqlalchemy", "psycopg2", "psycopg2-binary", "pymysql", "redis",
	"pymongo", "motor", "asyncpg", "aiosqlite", "peewee",
	"boto3", "botocore", "google-cloud-storage", "google-auth",
	"azure-storage-blob", "azure-identity",
	"pytest", "mock", "responses", "fakeredis", "factory-boy",
	"click", "typer", "argparse", "fire", "rich", "tqdm", "colorama",
	"pydantic", "attrs", "dataclasses-json", "marshmallow", "cattrs",
	"jinja2", "mako",
	"celery", "rq", "dramatiq",
	"cryptography", "pyjwt", "passlib", "bcrypt", "paramiko",
	"loguru", "structlog",
	"anyio", "trio",
	"arrow", "pendulum", "python-dateutil", "pytz",
	"chardet", "charset-normalizer",
	"tox", "nox", "pre-commit",
	"mypy", "black", "ruff", "isort",
	"setuptools", "wheel", "pip", "poetry",
}

// pythonAliases maps an alias seen in prose to its canonical pip name.
var pythonAliases = map[string]string{
	"cv2":     "opencv-python",
	"PIL":     "pillow",
	"sklearn": "scikit-learn",
	"bs4":     "beautifulsoup4",
	"yaml":    "pyyaml",
	"dotenv":  "python-dotenv",
	"jwt":     "pyjwt",
	"skimage": "scikit-image",
	"pytorch": "torch",
	"tf":      "tensorflow",
}

var nodePackages = []string{
	"axios", "node-fetch", "got", "superagent", "ky",
	"express", "koa", "fastify", "hapi", "nest", "next",
	"lodash", "underscore", "ramda", "fp-ts",
	"moment", "dayjs", "date-fns", "luxon",
	"cheerio", "puppeteer", "playwright",
	"mongoose", "sequelize", "knex", "prisma", "typeorm",
	"ioredis", "redis",
	"aws-sdk", "@aws-sdk/client-s3", "googleapis",
	"jest", "mocha", "chai", "vitest", "sinon",
	"commander", "yargs", "inquirer", "meow", "cac",
	"chalk", "ora", "boxen", "cli-table3", "figures",
	"dotenv", "convict",
	"jsonwebtoken", "bcrypt", "crypto-js", "uuid", "nanoid",
	"socket.io", "ws",
	"sharp", "jimp",
	"react", "vue", "svelte", "solid-js", "angular",
	"webpack", "vite", "esbuild", "rollup", "parcel",
	"typescript", "ts-node", "tsx",
	"zod", "yup", "joi", "ajv",
	"glob", "minimatch", "chokidar", "fs-extra",
	"debug", "winston", "pino",
	"p-limit", "p-queue", "p-retry",
	"execa", "cross-env", "cross-spawn",
	"agent-browser",
}

var nodeAliases = map[string]string{
	"socket.io-client": "socket.io",
}
